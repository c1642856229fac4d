package services

import (
	"sync"
	"testing"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"github.com/anonto42/mintfeed/backend/internal/testutil"
)

func TestMintAllocatesTokenAndRejectsSecondMint(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	p := testutil.CreatePost(t, db, a.ID, "hello", nil)
	svc := newNFTService(db)

	res, err := svc.Mint(ctxb, a.ID, models.MintRequest{PostID: p.ID})
	if err != nil {
		t.Fatal(err)
	}
	if res.TokenID != 1 {
		t.Errorf("token = %d, want 1", res.TokenID)
	}

	_, err = svc.Mint(ctxb, a.ID, models.MintRequest{PostID: p.ID})
	wantKind(t, err, apperr.KindConflict)

	mint, err := svc.GetByPost(ctxb, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if mint.Owner != a.Address || mint.CollectionID != res.CollectionID {
		t.Errorf("mint = %+v", mint)
	}

	var col models.Collection
	if err := db.First(&col, res.CollectionID).Error; err != nil {
		t.Fatal(err)
	}
	if col.TotalSupply != 1 {
		t.Errorf("totalSupply = %d, want 1", col.TotalSupply)
	}
}

func TestConcurrentMintsOfOnePost(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	p := testutil.CreatePost(t, db, a.ID, "hello", nil)
	svc := newNFTService(db)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Mint(ctxb, a.ID, models.MintRequest{PostID: p.ID})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.KindOf(err) != apperr.KindConflict:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("successful mints = %d, want 1", ok)
	}

	var mints int64
	db.Model(&models.NFTMint{}).Count(&mints)
	var col models.Collection
	if err := db.Where("default_for = ?", a.ID).First(&col).Error; err != nil {
		t.Fatal(err)
	}
	if mints != 1 || col.TotalSupply != 1 {
		t.Errorf("mints = %d, supply = %d, want 1 and 1", mints, col.TotalSupply)
	}
}

func TestSupplyMatchesMintRecords(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	svc := newNFTService(db)

	col, err := svc.CreateCollection(ctxb, a.ID, models.CreateCollectionRequest{Name: "  <i>Drops</i> "})
	if err != nil {
		t.Fatal(err)
	}
	if col.Name != "Drops" {
		t.Errorf("collection name = %q, want sanitized", col.Name)
	}

	const n = 5
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		p := testutil.CreatePost(t, db, a.ID, "post", nil)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Mint(ctxb, a.ID, models.MintRequest{PostID: p.ID, CollectionID: &col.ID}); err != nil {
				t.Errorf("mint %d: %v", p.ID, err)
			}
		}()
	}
	wg.Wait()

	var mints []models.NFTMint
	if err := db.Where("collection_id = ?", col.ID).Find(&mints).Error; err != nil {
		t.Fatal(err)
	}
	var stored models.Collection
	db.First(&stored, col.ID)
	if int(stored.TotalSupply) != len(mints) || len(mints) != n {
		t.Fatalf("supply = %d, records = %d, want %d", stored.TotalSupply, len(mints), n)
	}
	counted, err := repositories.NewPostgresNFTRepository(db).CountMints(ctxb, col.ID)
	if err != nil {
		t.Fatal(err)
	}
	if counted != int64(stored.TotalSupply) {
		t.Errorf("CountMints = %d, supply = %d", counted, stored.TotalSupply)
	}
	seen := map[uint]bool{}
	for _, m := range mints {
		if m.TokenID < 1 || m.TokenID > n || seen[m.TokenID] {
			t.Errorf("token %d out of range or repeated", m.TokenID)
		}
		seen[m.TokenID] = true
	}
}

func TestMintPermissions(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	p := testutil.CreatePost(t, db, a.ID, "hello", nil)
	svc := newNFTService(db)

	_, err := svc.Mint(ctxb, b.ID, models.MintRequest{PostID: p.ID})
	wantKind(t, err, apperr.KindForbidden)

	bobs, err := svc.CreateCollection(ctxb, b.ID, models.CreateCollectionRequest{Name: "bob"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.Mint(ctxb, a.ID, models.MintRequest{PostID: p.ID, CollectionID: &bobs.ID})
	wantKind(t, err, apperr.KindForbidden)

	_, err = svc.Mint(ctxb, a.ID, models.MintRequest{PostID: p.ID + 50})
	wantKind(t, err, apperr.KindNotFound)

	_, err = svc.Mint(ctxb, 0, models.MintRequest{PostID: p.ID})
	wantKind(t, err, apperr.KindUnauthenticated)

	_, err = svc.GetByPost(ctxb, p.ID)
	wantKind(t, err, apperr.KindNotFound)
}

func TestMintedPostCannotBeDeleted(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	root := testutil.CreatePost(t, db, a.ID, "root", nil)
	reply := testutil.CreatePost(t, db, a.ID, "reply", &root.ID)

	if _, err := newNFTService(db).Mint(ctxb, a.ID, models.MintRequest{PostID: reply.ID}); err != nil {
		t.Fatal(err)
	}

	posts := newPostService(db)
	wantKind(t, posts.Delete(ctxb, a.ID, reply.ID), apperr.KindConflict)
	wantKind(t, posts.Delete(ctxb, a.ID, root.ID), apperr.KindConflict)
}
