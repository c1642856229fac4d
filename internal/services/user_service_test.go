package services

import (
	"testing"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/testutil"
)

func TestFollowAndUnfollow(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	svc := NewUserService(db, newDirectory(t, db))

	wantKind(t, svc.Follow(ctxb, a.ID, a.ID), apperr.KindValidation)
	wantKind(t, svc.Follow(ctxb, a.ID, 999), apperr.KindNotFound)
	wantKind(t, svc.Follow(ctxb, 0, b.ID), apperr.KindUnauthenticated)

	for i := 0; i < 2; i++ {
		if err := svc.Follow(ctxb, a.ID, b.ID); err != nil {
			t.Fatal(err)
		}
	}
	if got := countNotifications(t, db, models.NotificationFollow, b.ID); got != 1 {
		t.Errorf("follow notifications = %d, want 1", got)
	}

	profile, err := svc.Get(ctxb, a.ID, models.GetUserRequest{Username: "BOB"})
	if err != nil {
		t.Fatal(err)
	}
	if !profile.IsFollowing || profile.FollowersCount != 1 || profile.IsSelf {
		t.Errorf("profile = %+v", profile)
	}

	followers, err := svc.Followers(ctxb, models.UserListRequest{UserID: b.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(followers.Items) != 1 || followers.Items[0].ID != a.ID {
		t.Errorf("followers = %+v", followers.Items)
	}
	following, err := svc.Following(ctxb, models.UserListRequest{UserID: a.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(following.Items) != 1 || following.Items[0].ID != b.ID {
		t.Errorf("following = %+v", following.Items)
	}

	if err := svc.Unfollow(ctxb, a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	if got := countNotifications(t, db, models.NotificationFollow, b.ID); got != 0 {
		t.Errorf("follow notifications after unfollow = %d, want 0", got)
	}
	me, err := svc.Me(ctxb, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if me.FollowersCount != 0 || !me.IsSelf {
		t.Errorf("me = %+v", me)
	}
}

func TestUpdateProfileSanitizes(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	svc := NewUserService(db, newDirectory(t, db))

	name, bio := "<b>Alice</b>", "gopher <script>x</script>"
	p, err := svc.Update(ctxb, a.ID, models.UpdateUserRequest{DisplayName: &name, Bio: &bio})
	if err != nil {
		t.Fatal(err)
	}
	if p.DisplayName != "Alice" || p.Bio != "gopher" {
		t.Errorf("profile = %q / %q", p.DisplayName, p.Bio)
	}

	found, err := svc.Search(ctxb, models.SearchUsersRequest{Q: "ALI"})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].ID != a.ID {
		t.Errorf("search = %+v", found)
	}

	_, err = svc.Get(ctxb, 0, models.GetUserRequest{})
	wantKind(t, err, apperr.KindValidation)
}
