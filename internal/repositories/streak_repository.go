package repositories

import (
	"context"

	"github.com/anonto42/mintfeed/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakRepository defines the interface for streak and points rows.
type StreakRepository interface {
	GetForUpdate(ctx context.Context, userID uint) (*models.UserStreak, error)
	GetStreak(ctx context.Context, userID uint) (*models.UserStreak, error)
	SaveStreak(ctx context.Context, s *models.UserStreak) error
	Leaderboard(ctx context.Context, limit int) ([]models.UserStreak, error)
}

// PostgresStreakRepository implements StreakRepository for PostgreSQL
type PostgresStreakRepository struct {
	db *gorm.DB
}

// NewPostgresStreakRepository creates a new PostgresStreakRepository
func NewPostgresStreakRepository(db *gorm.DB) *PostgresStreakRepository {
	return &PostgresStreakRepository{db: db}
}

// GetForUpdate ensures the user's streak row exists and locks it for the
// rest of the enclosing transaction.
func (r *PostgresStreakRepository) GetForUpdate(ctx context.Context, userID uint) (*models.UserStreak, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UserStreak{UserID: userID}).Error; err != nil {
		return nil, err
	}
	var s models.UserStreak
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStreak returns a zero streak for users that never checked in.
func (r *PostgresStreakRepository) GetStreak(ctx context.Context, userID uint) (*models.UserStreak, error) {
	s := models.UserStreak{UserID: userID}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresStreakRepository) SaveStreak(ctx context.Context, s *models.UserStreak) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *PostgresStreakRepository) Leaderboard(ctx context.Context, limit int) ([]models.UserStreak, error) {
	var rows []models.UserStreak
	err := r.db.WithContext(ctx).Where("points > 0").Order("points DESC, user_id ASC").Limit(limit).Find(&rows).Error
	return rows, err
}
