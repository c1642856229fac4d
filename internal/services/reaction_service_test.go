package services

import (
	"testing"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"github.com/anonto42/mintfeed/backend/internal/testutil"
)

func TestReactionAddIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	p := testutil.CreatePost(t, db, a.ID, "hello", nil)
	svc := newReactionService(db)
	reactions := repositories.NewPostgresReactionRepository(db)

	for _, kind := range []models.ReactionKind{models.ReactionLike, models.ReactionSave, models.ReactionRepost} {
		for i := 0; i < 3; i++ {
			if err := svc.Add(ctxb, kind, b.ID, p.ID); err != nil {
				t.Fatalf("Add(%s) #%d: %v", kind, i, err)
			}
		}
		n, err := reactions.CountByPost(ctxb, kind, p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("%s rows = %d, want 1", kind, n)
		}
		if got := countNotifications(t, db, reactionNotification[kind], a.ID); got != 1 {
			t.Errorf("%s notifications = %d, want 1", kind, got)
		}
	}
}

func TestReactionRemoveDeletesNotification(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	p := testutil.CreatePost(t, db, a.ID, "hello", nil)
	svc := newReactionService(db)

	if err := svc.Add(ctxb, models.ReactionLike, b.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(ctxb, models.ReactionLike, b.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(ctxb, models.ReactionLike, b.ID, p.ID); err != nil {
		t.Fatalf("second Remove: %v", err)
	}

	var likes int64
	db.Model(&models.Like{}).Count(&likes)
	if likes != 0 {
		t.Errorf("likes = %d, want 0", likes)
	}
	if got := countNotifications(t, db, models.NotificationLike, a.ID); got != 0 {
		t.Errorf("like notifications = %d, want 0", got)
	}
}

func TestReactionOnOwnPostDoesNotNotify(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	p := testutil.CreatePost(t, db, a.ID, "hello", nil)

	if err := newReactionService(db).Add(ctxb, models.ReactionSave, a.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	if got := countNotifications(t, db, models.NotificationSave, a.ID); got != 0 {
		t.Errorf("self notifications = %d, want 0", got)
	}
}

func TestReactionErrors(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	p := testutil.CreatePost(t, db, a.ID, "hello", nil)
	svc := newReactionService(db)

	wantKind(t, svc.Add(ctxb, models.ReactionLike, 0, p.ID), apperr.KindUnauthenticated)
	wantKind(t, svc.Add(ctxb, models.ReactionLike, a.ID, p.ID+100), apperr.KindNotFound)
	wantKind(t, svc.Remove(ctxb, models.ReactionRepost, a.ID, p.ID+100), apperr.KindNotFound)
}

func TestReactionOnCommunityPostRequiresMembership(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner")
	outsider := testutil.CreateUser(t, db, "outsider")
	c := &models.Community{Name: "gophers", CreatorID: owner.ID}
	if err := db.Create(c).Error; err != nil {
		t.Fatal(err)
	}
	p := &models.Post{AuthorID: owner.ID, Content: "inside", CommunityID: &c.ID}
	if err := db.Create(p).Error; err != nil {
		t.Fatal(err)
	}

	svc := newReactionService(db)
	err := svc.Add(ctxb, models.ReactionLike, outsider.ID, p.ID)
	if k := apperr.KindOf(err); k != apperr.KindForbidden && k != apperr.KindNotFound {
		t.Fatalf("outsider like: %v, want forbidden or not found", err)
	}
	if err := svc.Add(ctxb, models.ReactionLike, owner.ID, p.ID); err != nil {
		t.Fatalf("creator like: %v", err)
	}
}

func TestReactionUndoAfterLeavingCommunity(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner")
	bob := testutil.CreateUser(t, db, "bob")
	communities := NewCommunityService(repositoriesCommunity(db), newDirectory(t, db))

	c, err := communities.Create(ctxb, owner.ID, models.CreateCommunityRequest{Name: "gophers"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := communities.Join(ctxb, bob.ID, c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := communities.Approve(ctxb, owner.ID, models.CommunityMemberRequest{CommunityID: c.ID, UserID: bob.ID}); err != nil {
		t.Fatal(err)
	}
	p := &models.Post{AuthorID: owner.ID, Content: "inside", CommunityID: &c.ID}
	if err := db.Create(p).Error; err != nil {
		t.Fatal(err)
	}

	svc := newReactionService(db)
	if err := svc.Add(ctxb, models.ReactionLike, bob.ID, p.ID); err != nil {
		t.Fatalf("member like: %v", err)
	}
	if err := communities.Leave(ctxb, bob.ID, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(ctxb, models.ReactionLike, bob.ID, p.ID); err != nil {
		t.Fatalf("unlike after leaving: %v", err)
	}

	n, err := repositories.NewPostgresReactionRepository(db).CountByPost(ctxb, models.ReactionLike, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("likes = %d, want 0", n)
	}
	if got := countNotifications(t, db, models.NotificationLike, owner.ID); got != 0 {
		t.Errorf("like notifications = %d, want 0", got)
	}
	wantKind(t, svc.Add(ctxb, models.ReactionLike, bob.ID, p.ID), apperr.KindForbidden)
}
