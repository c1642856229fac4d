package services

import (
	"strings"
	"testing"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/testutil"
)

func TestCreateReplyNotifiesAndInlinesParent(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	svc := newPostService(db)

	p1, err := svc.Create(ctxb, a.ID, models.CreatePostRequest{Content: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	p2, err := svc.Create(ctxb, b.ID, models.CreatePostRequest{Content: "<em>hi</em>", ReplyToID: &p1.ID})
	if err != nil {
		t.Fatal(err)
	}

	if p2.Content != "hi" {
		t.Errorf("content = %q, want sanitized", p2.Content)
	}
	if p2.ReplyTo == nil || p2.ReplyTo.ID != p1.ID || p2.ReplyTo.Content != "hello" {
		t.Fatalf("replyTo = %+v, want p1", p2.ReplyTo)
	}
	if !p2.Viewer.IsOwner {
		t.Error("created view should be owned by its author")
	}
	if got := countNotifications(t, db, models.NotificationReply, a.ID); got != 1 {
		t.Errorf("reply notifications = %d, want 1", got)
	}
}

func TestCreateValidatesContent(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	svc := newPostService(db)

	_, err := svc.Create(ctxb, a.ID, models.CreatePostRequest{Content: "<p></p>"})
	wantKind(t, err, apperr.KindValidation)

	_, err = svc.Create(ctxb, a.ID, models.CreatePostRequest{Content: strings.Repeat("é", 501)})
	wantKind(t, err, apperr.KindValidation)

	_, err = svc.Create(ctxb, a.ID, models.CreatePostRequest{Content: strings.Repeat("é", 500)})
	if err != nil {
		t.Errorf("500 characters should be accepted: %v", err)
	}

	missing := uint(999)
	_, err = svc.Create(ctxb, a.ID, models.CreatePostRequest{Content: "x", ReplyToID: &missing})
	wantKind(t, err, apperr.KindNotFound)

	_, err = svc.Create(ctxb, 0, models.CreatePostRequest{Content: "x"})
	wantKind(t, err, apperr.KindUnauthenticated)
}

func TestCommunityPostsAndReplies(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner")
	outsider := testutil.CreateUser(t, db, "outsider")
	communities := NewCommunityService(repositoriesCommunity(db), newDirectory(t, db))
	c, err := communities.Create(ctxb, owner.ID, models.CreateCommunityRequest{Name: "gophers"})
	if err != nil {
		t.Fatal(err)
	}
	svc := newPostService(db)

	_, err = svc.Create(ctxb, outsider.ID, models.CreatePostRequest{Content: "let me in", CommunityID: &c.ID})
	wantKind(t, err, apperr.KindForbidden)

	root, err := svc.Create(ctxb, owner.ID, models.CreatePostRequest{Content: "welcome", CommunityID: &c.ID})
	if err != nil {
		t.Fatal(err)
	}
	reply, err := svc.Create(ctxb, owner.ID, models.CreatePostRequest{Content: "thread", ReplyToID: &root.ID})
	if err != nil {
		t.Fatal(err)
	}
	if reply.CommunityID == nil || *reply.CommunityID != c.ID {
		t.Errorf("reply community = %v, want %d", reply.CommunityID, c.ID)
	}

	_, err = svc.Create(ctxb, outsider.ID, models.CreatePostRequest{Content: "sneaky", ReplyToID: &root.ID})
	wantKind(t, err, apperr.KindForbidden)
}

func TestDeleteRemovesSubtreeAndNotifications(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	svc := newPostService(db)
	reactions := newReactionService(db)

	root, err := svc.Create(ctxb, a.ID, models.CreatePostRequest{Content: "root"})
	if err != nil {
		t.Fatal(err)
	}
	reply, err := svc.Create(ctxb, b.ID, models.CreatePostRequest{Content: "reply", ReplyToID: &root.ID})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctxb, a.ID, models.CreatePostRequest{Content: "nested", ReplyToID: &reply.ID}); err != nil {
		t.Fatal(err)
	}
	if err := reactions.Add(ctxb, models.ReactionLike, b.ID, root.ID); err != nil {
		t.Fatal(err)
	}

	wantKind(t, svc.Delete(ctxb, b.ID, root.ID), apperr.KindForbidden)
	if err := svc.Delete(ctxb, a.ID, root.ID); err != nil {
		t.Fatal(err)
	}

	var posts, likes, notifications int64
	db.Model(&models.Post{}).Count(&posts)
	db.Model(&models.Like{}).Count(&likes)
	db.Model(&models.Notification{}).Count(&notifications)
	if posts != 0 || likes != 0 || notifications != 0 {
		t.Errorf("after delete: posts %d, likes %d, notifications %d, want all 0", posts, likes, notifications)
	}

	wantKind(t, svc.Delete(ctxb, a.ID, root.ID), apperr.KindNotFound)
}
