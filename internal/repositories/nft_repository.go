package repositories

import (
	"context"

	"github.com/anonto42/mintfeed/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NFTRepository defines the interface for collections and mint records.
// Callers run the mint sequence through a repository bound to a
// transaction.
type NFTRepository interface {
	CreateCollection(ctx context.Context, c *models.Collection) error
	EnsureDefaultCollection(ctx context.Context, creatorID uint, name string) (*models.Collection, error)
	GetCollectionByID(ctx context.Context, id uint) (*models.Collection, error)
	GetDefaultCollection(ctx context.Context, creatorID uint) (*models.Collection, error)
	ListCollections(ctx context.Context, creatorID uint) ([]models.Collection, error)
	IncrementSupply(ctx context.Context, collectionID uint) (uint, error)
	GetMintByPostID(ctx context.Context, postID uint) (*models.NFTMint, error)
	CreateMint(ctx context.Context, mint *models.NFTMint) error
	CountMints(ctx context.Context, collectionID uint) (int64, error)
	CountMintsForPosts(ctx context.Context, postIDs []uint) (int64, error)
}

// PostgresNFTRepository implements NFTRepository for PostgreSQL
type PostgresNFTRepository struct {
	db *gorm.DB
}

// NewPostgresNFTRepository creates a new PostgresNFTRepository
func NewPostgresNFTRepository(db *gorm.DB) *PostgresNFTRepository {
	return &PostgresNFTRepository{db: db}
}

func (r *PostgresNFTRepository) CreateCollection(ctx context.Context, c *models.Collection) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *PostgresNFTRepository) GetCollectionByID(ctx context.Context, id uint) (*models.Collection, error) {
	var c models.Collection
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// EnsureDefaultCollection returns the creator's default collection,
// creating it on first use. Concurrent callers converge on one row.
func (r *PostgresNFTRepository) EnsureDefaultCollection(ctx context.Context, creatorID uint, name string) (*models.Collection, error) {
	owner := creatorID
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Collection{CreatorID: creatorID, Name: name, DefaultFor: &owner}).Error
	if err != nil {
		return nil, err
	}
	c, err := r.GetDefaultCollection(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

// GetDefaultCollection returns nil without error when the creator has none.
func (r *PostgresNFTRepository) GetDefaultCollection(ctx context.Context, creatorID uint) (*models.Collection, error) {
	var c models.Collection
	err := r.db.WithContext(ctx).Where("default_for = ?", creatorID).Limit(1).Find(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *PostgresNFTRepository) ListCollections(ctx context.Context, creatorID uint) ([]models.Collection, error) {
	var cs []models.Collection
	err := r.db.WithContext(ctx).Where("creator_id = ?", creatorID).Order("id ASC").Find(&cs).Error
	return cs, err
}

// IncrementSupply bumps total_supply in a single statement and returns the
// new value, which is the token id of the mint being recorded.
func (r *PostgresNFTRepository) IncrementSupply(ctx context.Context, collectionID uint) (uint, error) {
	var supply uint
	res := r.db.WithContext(ctx).Raw(
		"UPDATE collections SET total_supply = total_supply + 1 WHERE id = ? RETURNING total_supply",
		collectionID,
	).Scan(&supply)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return supply, nil
}

// GetMintByPostID returns nil without error when the post is not minted.
func (r *PostgresNFTRepository) GetMintByPostID(ctx context.Context, postID uint) (*models.NFTMint, error) {
	var m models.NFTMint
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Limit(1).Find(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *PostgresNFTRepository) CreateMint(ctx context.Context, mint *models.NFTMint) error {
	return r.db.WithContext(ctx).Create(mint).Error
}

func (r *PostgresNFTRepository) CountMints(ctx context.Context, collectionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.NFTMint{}).Where("collection_id = ?", collectionID).Count(&count).Error
	return count, err
}

func (r *PostgresNFTRepository) CountMintsForPosts(ctx context.Context, postIDs []uint) (int64, error) {
	var count int64
	if len(postIDs) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Model(&models.NFTMint{}).Where("post_id IN ?", postIDs).Count(&count).Error
	return count, err
}
