package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/mintfeed/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository stores likes, saves and reposts. Each kind is a
// separate table unique on (user_id, post_id).
type ReactionRepository interface {
	AddReaction(ctx context.Context, kind models.ReactionKind, userID, postID uint) (bool, error)
	RemoveReaction(ctx context.Context, kind models.ReactionKind, userID, postID uint) (bool, error)
	CountByPost(ctx context.Context, kind models.ReactionKind, postID uint) (int64, error)
}

// PostgresReactionRepository implements ReactionRepository for PostgreSQL
type PostgresReactionRepository struct {
	db *gorm.DB
}

// NewPostgresReactionRepository creates a new PostgresReactionRepository
func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

func newReaction(kind models.ReactionKind, userID, postID uint) (any, error) {
	switch kind {
	case models.ReactionLike:
		return &models.Like{UserID: userID, PostID: postID}, nil
	case models.ReactionSave:
		return &models.Save{UserID: userID, PostID: postID}, nil
	case models.ReactionRepost:
		return &models.Repost{UserID: userID, PostID: postID}, nil
	}
	return nil, fmt.Errorf("unknown reaction kind %q", kind)
}

// AddReaction inserts the reaction. It reports false without error when the
// user already reacted.
func (r *PostgresReactionRepository) AddReaction(ctx context.Context, kind models.ReactionKind, userID, postID uint) (bool, error) {
	row, err := newReaction(kind, userID, postID)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RemoveReaction deletes the reaction and reports whether one existed.
func (r *PostgresReactionRepository) RemoveReaction(ctx context.Context, kind models.ReactionKind, userID, postID uint) (bool, error) {
	row, err := newReaction(kind, 0, 0)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresReactionRepository) CountByPost(ctx context.Context, kind models.ReactionKind, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(kind.Table()).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
