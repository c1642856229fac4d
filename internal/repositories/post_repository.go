package repositories

import (
	"context"

	"github.com/anonto42/mintfeed/backend/internal/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post write-side operations.
// Reads for display go through the read model.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	DeletePost(ctx context.Context, id uint) error
	SubtreeIDs(ctx context.Context, id uint) ([]uint, error)
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost removes the post; the database cascades to its reply subtree
// and reactions.
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SubtreeIDs returns the post and every reply below it.
func (r *PostgresPostRepository) SubtreeIDs(ctx context.Context, id uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Raw(`
WITH RECURSIVE subtree(id) AS (
	SELECT id FROM posts WHERE id = ?
	UNION ALL
	SELECT p.id FROM posts p JOIN subtree s ON p.reply_to_id = s.id
)
SELECT id FROM subtree`, id).Scan(&ids).Error
	return ids, err
}
