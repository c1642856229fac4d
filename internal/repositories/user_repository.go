package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/mintfeed/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByAddress(ctx context.Context, address string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	UpsertByAddress(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
	GetCounts(ctx context.Context, id uint) (followers, following, posts int64, err error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByAddress(ctx context.Context, address string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("address = ?", address).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(username) = ?", strings.ToLower(username)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// UpsertByAddress inserts the user or, when the address is known, loads the
// existing row into user. Profile fields of an existing user are untouched.
func (r *PostgresUserRepository) UpsertByAddress(ctx context.Context, user *models.User) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoNothing: true,
	}).Create(user).Error
	if err != nil {
		return err
	}
	return db.Where("address = ?", user.Address).First(user).Error
}

func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// SearchUsers matches username or display name, case-insensitive.
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	var users []models.User
	q := "%" + strings.ToLower(query) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?", q, q).
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *PostgresUserRepository) GetCounts(ctx context.Context, id uint) (followers, following, posts int64, err error) {
	db := r.db.WithContext(ctx)
	if err = db.Model(&models.Follow{}).Where("following_id = ?", id).Count(&followers).Error; err != nil {
		return
	}
	if err = db.Model(&models.Follow{}).Where("follower_id = ?", id).Count(&following).Error; err != nil {
		return
	}
	err = db.Model(&models.Post{}).Where("author_id = ?", id).Count(&posts).Error
	return
}
