package services

import (
	"context"
	"time"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/pagination"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"gorm.io/gorm"
)

// notify records n inside tx. Self notifications are skipped.
func notify(ctx context.Context, tx *gorm.DB, n models.Notification) error {
	if n.ActorID == n.RecipientID {
		return nil
	}
	return repositories.NewPostgresNotificationRepository(tx).CreateNotification(ctx, &n)
}

// unnotify removes what notify recorded for the same action.
func unnotify(ctx context.Context, tx *gorm.DB, n models.Notification) error {
	return repositories.NewPostgresNotificationRepository(tx).DeleteMatching(ctx, n)
}

// NotificationService serves the notification inbox.
type NotificationService struct {
	notifications repositories.NotificationRepository
	directory     *UserDirectory
	now           func() time.Time
}

func NewNotificationService(notifications repositories.NotificationRepository, directory *UserDirectory) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		directory:     directory,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *NotificationService) List(ctx context.Context, userID uint, req models.PageRequest) (pagination.Page[models.NotificationView], error) {
	if err := requireViewer(userID); err != nil {
		return pagination.Page[models.NotificationView]{}, err
	}
	cursor, err := pagination.ParseID(req.Cursor)
	if err != nil {
		return pagination.Page[models.NotificationView]{}, err
	}
	limit := pagination.ClampLimit(req.Limit, listDefaultLimit, 50)

	rows, err := s.notifications.GetByRecipientID(ctx, userID, cursor, limit)
	if err != nil {
		return pagination.Page[models.NotificationView]{}, internal(err, "failed to load notifications")
	}
	page := pagination.Trim(rows, limit, func(n models.Notification) string { return pagination.FormatID(n.ID) })

	views, err := s.enrich(ctx, page.Items)
	if err != nil {
		return pagination.Page[models.NotificationView]{}, err
	}
	return pagination.Page[models.NotificationView]{Items: views, NextCursor: page.NextCursor}, nil
}

func (s *NotificationService) Grouped(ctx context.Context, userID uint) (*models.GroupedNotifications, error) {
	if err := requireViewer(userID); err != nil {
		return nil, err
	}
	today, yesterday, week, older, err := s.notifications.GetGrouped(ctx, userID, s.now())
	if err != nil {
		return nil, internal(err, "failed to load notifications")
	}

	out := &models.GroupedNotifications{}
	for _, g := range []struct {
		src []models.Notification
		dst *[]models.NotificationView
	}{
		{today, &out.Today},
		{yesterday, &out.Yesterday},
		{week, &out.ThisWeek},
		{older, &out.Older},
	} {
		views, err := s.enrich(ctx, g.src)
		if err != nil {
			return nil, err
		}
		*g.dst = views
	}
	return out, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if err := requireViewer(userID); err != nil {
		return 0, err
	}
	n, err := s.notifications.GetUnreadCount(ctx, userID)
	if err != nil {
		return 0, internal(err, "failed to count notifications")
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	if err := requireViewer(userID); err != nil {
		return err
	}
	ok, err := s.notifications.MarkAsRead(ctx, notificationID, userID)
	if err != nil {
		return internal(err, "failed to update notification")
	}
	if !ok {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	if err := requireViewer(userID); err != nil {
		return err
	}
	if err := s.notifications.MarkAllAsRead(ctx, userID); err != nil {
		return internal(err, "failed to update notifications")
	}
	return nil
}

func (s *NotificationService) enrich(ctx context.Context, ns []models.Notification) ([]models.NotificationView, error) {
	ids := make([]uint, len(ns))
	for i, n := range ns {
		ids[i] = n.ActorID
	}
	actors, err := s.directory.Compacts(ctx, ids)
	if err != nil {
		return nil, internal(err, "failed to load actors")
	}

	views := make([]models.NotificationView, len(ns))
	for i, n := range ns {
		views[i] = models.NotificationView{Notification: n}
		if a, ok := actors[n.ActorID]; ok {
			views[i].Actor = &a
		}
	}
	return views, nil
}
