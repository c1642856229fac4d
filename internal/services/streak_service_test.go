package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/anonto42/mintfeed/backend/internal/testutil"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newStreakService(t *testing.T, locker Locker) (*StreakService, *fakeClock, uint) {
	t.Helper()
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "alice")
	clock := &fakeClock{t: time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)}
	svc := NewStreakService(db, locker, newDirectory(t, db))
	svc.now = clock.now
	return svc, clock, u.ID
}

func TestCheckInOncePerDay(t *testing.T) {
	svc, clock, uid := newStreakService(t, nil)

	first, err := svc.CheckIn(ctxb, uid)
	if err != nil {
		t.Fatal(err)
	}
	if first.AlreadyCheckedIn || first.Streak.Current != 1 || first.Awarded != 12 {
		t.Fatalf("first check-in = %+v", first)
	}

	clock.advance(10 * time.Hour)
	again, err := svc.CheckIn(ctxb, uid)
	if err != nil {
		t.Fatal(err)
	}
	if !again.AlreadyCheckedIn || again.Awarded != 0 || again.Streak.Points != 12 {
		t.Errorf("same day check-in = %+v", again)
	}
}

func TestCheckInStreakGrowsAndResets(t *testing.T) {
	svc, clock, uid := newStreakService(t, nil)

	var points int64
	for day := 1; day <= 9; day++ {
		res, err := svc.CheckIn(ctxb, uid)
		if err != nil {
			t.Fatal(err)
		}
		want := int64(10 + 2*min(day, 7))
		if res.Streak.Current != day || res.Awarded != want {
			t.Fatalf("day %d: current %d awarded %d, want %d and %d", day, res.Streak.Current, res.Awarded, day, want)
		}
		points += want
		clock.advance(24 * time.Hour)
	}

	clock.advance(24 * time.Hour) // one day skipped
	st, err := svc.Get(ctxb, uid)
	if err != nil {
		t.Fatal(err)
	}
	if st.Current != 0 || st.Longest != 9 || st.Points != points {
		t.Errorf("after a gap = %+v, want current 0, longest 9, points %d", st, points)
	}

	res, err := svc.CheckIn(ctxb, uid)
	if err != nil {
		t.Fatal(err)
	}
	if res.Streak.Current != 1 || res.Streak.Longest != 9 {
		t.Errorf("restart = %+v", res.Streak)
	}
}

func TestConcurrentCheckInsAwardOnce(t *testing.T) {
	svc, _, uid := newStreakService(t, nil)

	var wg sync.WaitGroup
	results := make([]*models.CheckInResult, 6)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.CheckIn(ctxb, uid)
			if err != nil {
				t.Errorf("check-in: %v", err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	awarded := 0
	for _, r := range results {
		if r != nil && !r.AlreadyCheckedIn {
			awarded++
		}
	}
	if awarded != 1 {
		t.Errorf("awarded check-ins = %d, want 1", awarded)
	}
	st, _ := svc.Get(ctxb, uid)
	if st.Points != 12 {
		t.Errorf("points = %d, want 12", st.Points)
	}
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, false, nil
}

func TestCheckInWhileLocked(t *testing.T) {
	svc, _, uid := newStreakService(t, busyLocker{})
	_, err := svc.CheckIn(ctxb, uid)
	wantKind(t, err, apperr.KindConflict)
}

func TestLeaderboardOrdersByPoints(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	testutil.CreateUser(t, db, "carol")
	svc := NewStreakService(db, nil, newDirectory(t, db))

	clock := &fakeClock{t: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}
	svc.now = clock.now
	for i := 0; i < 3; i++ {
		if _, err := svc.CheckIn(ctxb, b.ID); err != nil {
			t.Fatal(err)
		}
		clock.advance(24 * time.Hour)
	}
	if _, err := svc.CheckIn(ctxb, a.ID); err != nil {
		t.Fatal(err)
	}

	board, err := svc.Leaderboard(ctxb, models.LeaderboardRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(board) != 2 {
		t.Fatalf("leaderboard = %d entries, want 2", len(board))
	}
	if board[0].User.ID != b.ID || board[1].User.ID != a.ID {
		t.Errorf("order = [%d %d], want bob then alice", board[0].User.ID, board[1].User.ID)
	}
}

func TestStreakRequiresViewer(t *testing.T) {
	svc, _, _ := newStreakService(t, nil)
	_, err := svc.CheckIn(ctxb, 0)
	wantKind(t, err, apperr.KindUnauthenticated)
}
