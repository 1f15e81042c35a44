package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zias-project/zias/server/internal/zias/store/memory"
	"github.com/zias-project/zias/server/internal/zias/types"
)

func insertPing(t *testing.T, s *memory.PingStore, device, identity string, at time.Time) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), types.SensorPing{
		DeviceID:    device,
		ClusterID:   1,
		IdentityKey: identity,
		Modality:    types.ModalityRFID,
		Timestamp:   at,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return id
}

func TestClaimPair_BothOrNothing(t *testing.T) {
	s := memory.NewPingStore()
	ctx := context.Background()
	now := time.Now().UTC()

	a := insertPing(t, s, "dev-entry", "student-1", now)
	b := insertPing(t, s, "dev-exit", "student-1", now.Add(time.Second))
	c := insertPing(t, s, "dev-entry", "student-1", now.Add(2*time.Second))

	ok, err := s.ClaimPair(ctx, a, b)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}

	// Re-claiming a resolved pair loses.
	ok, err = s.ClaimPair(ctx, a, b)
	if err != nil || ok {
		t.Fatalf("second claim: ok=%v err=%v", ok, err)
	}

	// A pair with one already-claimed half loses and must not touch the
	// free half.
	ok, err = s.ClaimPair(ctx, b, c)
	if err != nil || ok {
		t.Fatalf("half-claimed pair: ok=%v err=%v", ok, err)
	}
	if p, found := s.Get(c); !found || p.Claimed {
		t.Errorf("losing claim must leave ping %d unclaimed", c)
	}

	// Missing ids lose too.
	ok, err = s.ClaimPair(ctx, c, 9999)
	if err != nil || ok {
		t.Fatalf("missing half: ok=%v err=%v", ok, err)
	}
}

func TestClaimPair_SingleWinnerUnderContention(t *testing.T) {
	s := memory.NewPingStore()
	ctx := context.Background()
	now := time.Now().UTC()

	a := insertPing(t, s, "dev-entry", "student-1", now)
	b := insertPing(t, s, "dev-exit", "student-1", now.Add(time.Second))

	const racers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ClaimPair(ctx, a, b)
			if err != nil {
				t.Errorf("ClaimPair: %v", err)
				return
			}
			if ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", won)
	}
}

func TestUnclaimedSince(t *testing.T) {
	s := memory.NewPingStore()
	ctx := context.Background()
	now := time.Now().UTC()

	// Outside the lookback: must not be returned.
	insertPing(t, s, "dev-entry", "student-1", now.Add(-time.Hour))
	a := insertPing(t, s, "dev-exit", "student-1", now.Add(-2*time.Second))
	b := insertPing(t, s, "dev-entry", "student-2", now.Add(-time.Second))
	// Claimed: must not be returned either.
	c := insertPing(t, s, "dev-exit", "student-2", now)
	d := insertPing(t, s, "dev-entry", "student-3", now)
	if ok, err := s.ClaimPair(ctx, c, d); err != nil || !ok {
		t.Fatalf("ClaimPair: ok=%v err=%v", ok, err)
	}

	got, err := s.UnclaimedSince(ctx, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("UnclaimedSince: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 pings inside the lookback, got %d", len(got))
	}
	// Oldest first.
	if got[0].ID != a || got[1].ID != b {
		t.Errorf("expected order [%d %d], got [%d %d]", a, b, got[0].ID, got[1].ID)
	}
}

func TestPruneOlderThan(t *testing.T) {
	s := memory.NewPingStore()
	ctx := context.Background()
	now := time.Now().UTC()

	old := insertPing(t, s, "dev-entry", "student-1", now.Add(-48*time.Hour))
	fresh := insertPing(t, s, "dev-exit", "student-1", now)

	deleted, err := s.PruneOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
	if _, found := s.Get(old); found {
		t.Error("old ping should be gone")
	}
	if _, found := s.Get(fresh); !found {
		t.Error("fresh ping should survive")
	}
}

func TestClaimSingle(t *testing.T) {
	s := memory.NewPingStore()
	ctx := context.Background()
	now := time.Now().UTC()

	a := insertPing(t, s, "dev-entry", "student-1", now)

	if err := s.Claim(ctx, a); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if p, found := s.Get(a); !found || !p.Claimed {
		t.Errorf("ping %d must be claimed", a)
	}

	// Idempotent, and a missing id is a no-op.
	if err := s.Claim(ctx, a); err != nil {
		t.Errorf("re-claim: %v", err)
	}
	if err := s.Claim(ctx, 9999); err != nil {
		t.Errorf("missing id: %v", err)
	}

	unclaimed, err := s.UnclaimedSince(ctx, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("UnclaimedSince: %v", err)
	}
	if len(unclaimed) != 0 {
		t.Errorf("claimed ping must not reappear, got %d", len(unclaimed))
	}
}
