package services

import (
	"context"
	"testing"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/readmodel"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"github.com/anonto42/mintfeed/backend/internal/testutil"
	"gorm.io/gorm"
)

var ctxb = context.Background()

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("err = nil, want %s", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("kind = %s (%v), want %s", got, err, kind)
	}
}

func newDirectory(t *testing.T, db *gorm.DB) *UserDirectory {
	t.Helper()
	d, err := NewUserDirectory(repositories.NewPostgresUserRepository(db), 128)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func countNotifications(t *testing.T, db *gorm.DB, typ string, recipientID uint) int64 {
	t.Helper()
	var n int64
	err := db.Model(&models.Notification{}).
		Where("type = ? AND recipient_id = ?", typ, recipientID).
		Count(&n).Error
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestSanitizeStripsMarkup(t *testing.T) {
	tests := []struct{ in, want string }{
		{"hello", "hello"},
		{"  <b>bold</b> move ", "bold move"},
		{"<script>alert(1)</script>", ""},
		{"fish & chips", "fish & chips"},
		{"a < b", "a < b"},
	}
	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUserDirectoryCachesAndInvalidates(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "alice")
	d := newDirectory(t, db)

	got, err := d.Compacts(ctxb, []uint{u.ID, u.ID, 999})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[u.ID].Username != "alice" {
		t.Fatalf("Compacts = %+v", got)
	}

	if err := db.Model(u).Update("username", "alicia").Error; err != nil {
		t.Fatal(err)
	}
	got, _ = d.Compacts(ctxb, []uint{u.ID})
	if got[u.ID].Username != "alice" {
		t.Errorf("cached username = %q, want alice", got[u.ID].Username)
	}

	d.Invalidate(u.ID)
	got, _ = d.Compacts(ctxb, []uint{u.ID})
	if got[u.ID].Username != "alicia" {
		t.Errorf("username after invalidate = %q, want alicia", got[u.ID].Username)
	}
}

func repositoriesCommunity(db *gorm.DB) repositories.CommunityRepository {
	return repositories.NewPostgresCommunityRepository(db)
}

func newPostService(db *gorm.DB) *PostService {
	return NewPostService(db, repositories.NewPostgresPostRepository(db), repositories.NewPostgresCommunityRepository(db), readmodel.NewBuilder(db))
}

func newReactionService(db *gorm.DB) *ReactionService {
	return NewReactionService(db, repositories.NewPostgresPostRepository(db), repositories.NewPostgresCommunityRepository(db))
}

func newNFTService(db *gorm.DB) *NFTService {
	return NewNFTService(db, repositories.NewPostgresNFTRepository(db))
}
