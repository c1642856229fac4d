package services

import (
	"testing"
	"time"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"github.com/anonto42/mintfeed/backend/internal/testutil"
)

func TestNotificationListAndRead(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	p := testutil.CreatePost(t, db, a.ID, "hello", nil)

	reactions := newReactionService(db)
	for _, kind := range []models.ReactionKind{models.ReactionLike, models.ReactionSave, models.ReactionRepost} {
		if err := reactions.Add(ctxb, kind, b.ID, p.ID); err != nil {
			t.Fatal(err)
		}
	}

	svc := NewNotificationService(repositories.NewPostgresNotificationRepository(db), newDirectory(t, db))
	page, err := svc.List(ctxb, a.ID, models.PageRequest{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 2 || page.NextCursor == nil {
		t.Fatalf("first page = %d items", len(page.Items))
	}
	if page.Items[0].Type != models.NotificationRepost {
		t.Errorf("newest = %q, want repost", page.Items[0].Type)
	}
	if page.Items[0].Actor == nil || page.Items[0].Actor.Username != "bob" {
		t.Errorf("actor = %+v, want bob", page.Items[0].Actor)
	}

	unread, err := svc.UnreadCount(ctxb, a.ID)
	if err != nil || unread != 3 {
		t.Fatalf("unread = %d (%v), want 3", unread, err)
	}

	wantKind(t, svc.MarkRead(ctxb, b.ID, page.Items[0].ID), apperr.KindNotFound)
	if err := svc.MarkRead(ctxb, a.ID, page.Items[0].ID); err != nil {
		t.Fatal(err)
	}
	if unread, _ = svc.UnreadCount(ctxb, a.ID); unread != 2 {
		t.Errorf("unread after markRead = %d, want 2", unread)
	}
	if err := svc.MarkAllRead(ctxb, a.ID); err != nil {
		t.Fatal(err)
	}
	if unread, _ = svc.UnreadCount(ctxb, a.ID); unread != 0 {
		t.Errorf("unread after markAllRead = %d, want 0", unread)
	}
}

func TestNotificationsGrouped(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")

	now := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{
		now.Add(-time.Hour),
		now.Add(-20 * time.Hour),
		now.Add(-4 * 24 * time.Hour),
		now.Add(-30 * 24 * time.Hour),
	} {
		n := &models.Notification{Type: models.NotificationFollow, ActorID: b.ID, RecipientID: a.ID, TargetType: "user", CreatedAt: at}
		if err := db.Create(n).Error; err != nil {
			t.Fatal(err)
		}
	}

	svc := NewNotificationService(repositories.NewPostgresNotificationRepository(db), newDirectory(t, db))
	svc.now = func() time.Time { return now }
	g, err := svc.Grouped(ctxb, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Today) != 1 || len(g.Yesterday) != 1 || len(g.ThisWeek) != 1 || len(g.Older) != 1 {
		t.Errorf("grouped = %d/%d/%d/%d, want 1 each", len(g.Today), len(g.Yesterday), len(g.ThisWeek), len(g.Older))
	}
}
