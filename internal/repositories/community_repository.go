package repositories

import (
	"context"

	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/pagination"
	"gorm.io/gorm"
)

// CommunityRepository defines the interface for communities and their
// membership roster.
type CommunityRepository interface {
	CreateCommunity(ctx context.Context, community *models.Community) error
	GetCommunityByID(ctx context.Context, id uint) (*models.Community, error)
	ListCommunities(ctx context.Context, cursor uint, limit int) ([]models.Community, error)
	CountMembers(ctx context.Context, communityID uint) (int64, error)
	GetMembership(ctx context.Context, communityID, userID uint) (*models.CommunityMember, error)
	CreateMembership(ctx context.Context, member *models.CommunityMember) error
	UpdateMembership(ctx context.Context, member *models.CommunityMember) error
	DeleteMembership(ctx context.Context, communityID, userID uint) (bool, error)
	ListMembers(ctx context.Context, communityID uint, approved bool, cursor uint, limit int) ([]models.CommunityMember, error)
}

// PostgresCommunityRepository implements CommunityRepository for PostgreSQL
type PostgresCommunityRepository struct {
	db *gorm.DB
}

// NewPostgresCommunityRepository creates a new PostgresCommunityRepository
func NewPostgresCommunityRepository(db *gorm.DB) *PostgresCommunityRepository {
	return &PostgresCommunityRepository{db: db}
}

// CreateCommunity inserts the community and the creator's approved admin
// membership in one transaction.
func (r *PostgresCommunityRepository) CreateCommunity(ctx context.Context, community *models.Community) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		return tx.Create(&models.CommunityMember{
			CommunityID: community.ID,
			UserID:      community.CreatorID,
			Role:        models.RoleAdmin,
			IsApproved:  true,
		}).Error
	})
}

func (r *PostgresCommunityRepository) GetCommunityByID(ctx context.Context, id uint) (*models.Community, error) {
	var c models.Community
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresCommunityRepository) ListCommunities(ctx context.Context, cursor uint, limit int) ([]models.Community, error) {
	var cs []models.Community
	err := r.db.WithContext(ctx).Scopes(pagination.IDScope("id", cursor, limit)).Find(&cs).Error
	return cs, err
}

func (r *PostgresCommunityRepository) CountMembers(ctx context.Context, communityID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommunityMember{}).
		Where("community_id = ? AND is_approved = ?", communityID, true).Count(&count).Error
	return count, err
}

// GetMembership returns nil without error when the user has no row.
func (r *PostgresCommunityRepository) GetMembership(ctx context.Context, communityID, userID uint) (*models.CommunityMember, error) {
	var m models.CommunityMember
	err := r.db.WithContext(ctx).Where("community_id = ? AND user_id = ?", communityID, userID).Limit(1).Find(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *PostgresCommunityRepository) CreateMembership(ctx context.Context, member *models.CommunityMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *PostgresCommunityRepository) UpdateMembership(ctx context.Context, member *models.CommunityMember) error {
	return r.db.WithContext(ctx).Model(member).Select("role", "is_approved").Updates(member).Error
}

func (r *PostgresCommunityRepository) DeleteMembership(ctx context.Context, communityID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("community_id = ? AND user_id = ?", communityID, userID).Delete(&models.CommunityMember{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresCommunityRepository) ListMembers(ctx context.Context, communityID uint, approved bool, cursor uint, limit int) ([]models.CommunityMember, error) {
	var ms []models.CommunityMember
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND is_approved = ?", communityID, approved).
		Scopes(pagination.IDScope("id", cursor, limit)).
		Find(&ms).Error
	return ms, err
}
