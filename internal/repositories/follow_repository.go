package repositories

import (
	"context"

	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	CreateFollow(ctx context.Context, followerID, followingID uint) (bool, error)
	DeleteFollow(ctx context.Context, followerID, followingID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowers(ctx context.Context, userID, cursor uint, limit int) ([]FollowEdge, error)
	GetFollowing(ctx context.Context, userID, cursor uint, limit int) ([]FollowEdge, error)
}

// FollowEdge is a follow row joined with the user on the far side.
type FollowEdge struct {
	FollowID uint
	User     models.User
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{FollowerID: followerID, FollowingID: followingID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ? AND following_id = ?", followerID, followingID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresFollowRepository) GetFollowers(ctx context.Context, userID, cursor uint, limit int) ([]FollowEdge, error) {
	return r.edges(ctx, "following_id", "follower_id", userID, cursor, limit)
}

func (r *PostgresFollowRepository) GetFollowing(ctx context.Context, userID, cursor uint, limit int) ([]FollowEdge, error) {
	return r.edges(ctx, "follower_id", "following_id", userID, cursor, limit)
}

func (r *PostgresFollowRepository) edges(ctx context.Context, matchCol, otherCol string, userID, cursor uint, limit int) ([]FollowEdge, error) {
	var follows []models.Follow
	err := r.db.WithContext(ctx).
		Where(matchCol+" = ?", userID).
		Scopes(pagination.IDScope("id", cursor, limit)).
		Find(&follows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(follows))
	for i, f := range follows {
		if otherCol == "follower_id" {
			ids[i] = f.FollowerID
		} else {
			ids[i] = f.FollowingID
		}
	}
	users, err := NewPostgresUserRepository(r.db).GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	edges := make([]FollowEdge, 0, len(follows))
	for i, f := range follows {
		if u, ok := byID[ids[i]]; ok {
			edges = append(edges, FollowEdge{FollowID: f.ID, User: u})
		}
	}
	return edges, nil
}
