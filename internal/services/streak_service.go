package services

import (
	"context"
	"strconv"
	"time"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/metrics"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/pagination"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"gorm.io/gorm"
)

const (
	checkInBasePoints = 10
	checkInDayBonus   = 2
	checkInBonusCap   = 7
	checkInLockTTL    = 5 * time.Second
)

// Locker serializes work per key across processes.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// StreakService runs daily check-ins. A check-in is serialized per user by
// the optional Locker and by a row lock inside its transaction.
type StreakService struct {
	db        *gorm.DB
	streaks   repositories.StreakRepository
	locker    Locker
	directory *UserDirectory
	now       func() time.Time
}

func NewStreakService(db *gorm.DB, locker Locker, directory *UserDirectory) *StreakService {
	return &StreakService{
		db:        db,
		streaks:   repositories.NewPostgresStreakRepository(db),
		locker:    locker,
		directory: directory,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *StreakService) CheckIn(ctx context.Context, userID uint) (*models.CheckInResult, error) {
	ctx, span := tracer.Start(ctx, "StreakService.CheckIn")
	defer span.End()

	if err := requireViewer(userID); err != nil {
		return nil, err
	}

	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, strconv.FormatUint(uint64(userID), 10), checkInLockTTL)
		if err != nil {
			return nil, apperr.Internal(err, "failed to lock streak")
		}
		defer release()
		if !ok {
			metrics.CheckIns.WithLabelValues("busy").Inc()
			return nil, apperr.Conflict("check-in already in progress")
		}
	}

	var result models.CheckInResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repositories.NewPostgresStreakRepository(tx)
		streak, err := repo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		today := truncateDay(s.now())
		if streak.LastCheckIn != nil {
			last := truncateDay(*streak.LastCheckIn)
			switch {
			case !today.After(last):
				result = models.CheckInResult{Streak: *streak, AlreadyCheckedIn: true}
				return nil
			case today.Sub(last) == 24*time.Hour:
				streak.Current++
			default:
				streak.Current = 1
			}
		} else {
			streak.Current = 1
		}

		if streak.Current > streak.Longest {
			streak.Longest = streak.Current
		}
		awarded := int64(checkInBasePoints + checkInDayBonus*min(streak.Current, checkInBonusCap))
		streak.Points += awarded
		streak.LastCheckIn = &today

		if err := repo.SaveStreak(ctx, streak); err != nil {
			return err
		}
		result = models.CheckInResult{Streak: *streak, Awarded: awarded}
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to check in")
	}

	if result.AlreadyCheckedIn {
		metrics.CheckIns.WithLabelValues("repeat").Inc()
	} else {
		metrics.CheckIns.WithLabelValues("ok").Inc()
	}
	return &result, nil
}

func (s *StreakService) Get(ctx context.Context, userID uint) (*models.UserStreak, error) {
	if err := requireViewer(userID); err != nil {
		return nil, err
	}
	st, err := s.streaks.GetStreak(ctx, userID)
	if err != nil {
		return nil, internal(err, "failed to load streak")
	}
	// a streak survives only while the last check-in was today or yesterday
	if st.LastCheckIn != nil && truncateDay(s.now()).Sub(truncateDay(*st.LastCheckIn)) > 24*time.Hour {
		st.Current = 0
	}
	return st, nil
}

func (s *StreakService) Leaderboard(ctx context.Context, req models.LeaderboardRequest) ([]models.LeaderboardEntry, error) {
	limit := pagination.ClampLimit(req.Limit, 10, listMaxLimit)
	rows, err := s.streaks.Leaderboard(ctx, limit)
	if err != nil {
		return nil, internal(err, "failed to load leaderboard")
	}

	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.UserID
	}
	users, err := s.directory.Compacts(ctx, ids)
	if err != nil {
		return nil, internal(err, "failed to load users")
	}

	out := make([]models.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		if u, ok := users[r.UserID]; ok {
			out = append(out, models.LeaderboardEntry{User: u, Points: r.Points, Current: r.Current})
		}
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
