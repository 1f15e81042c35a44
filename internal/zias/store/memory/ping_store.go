package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zias-project/zias/server/internal/zias/types"
)

// PingStore is an in-memory ping log. Intended for tests and dev
// environments; the claim semantics match the sqlite implementation.
type PingStore struct {
	mu     sync.Mutex
	nextID int64
	pings  map[int64]*types.SensorPing
}

func NewPingStore() *PingStore {
	return &PingStore{pings: make(map[int64]*types.SensorPing)}
}

func (s *PingStore) Insert(_ context.Context, ping types.SensorPing) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ping.ID = s.nextID
	s.pings[ping.ID] = &ping
	return ping.ID, nil
}

// ClaimPair flips both pings to claimed only if both exist and neither
// is claimed yet. One lock, one decision: a racing pass sees either
// both claimed or both free, never a half-claimed pair.
func (s *PingStore) ClaimPair(_ context.Context, a, b int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pa, okA := s.pings[a]
	pb, okB := s.pings[b]
	if !okA || !okB || pa.Claimed || pb.Claimed {
		return false, nil
	}
	pa.Claimed = true
	pb.Claimed = true
	return true, nil
}

func (s *PingStore) Claim(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pings[id]; ok {
		p.Claimed = true
	}
	return nil
}

func (s *PingStore) UnclaimedSince(_ context.Context, cutoff time.Time) ([]types.SensorPing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.SensorPing
	for _, p := range s.pings {
		if !p.Claimed && !p.Timestamp.Before(cutoff) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *PingStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, p := range s.pings {
		if p.Timestamp.Before(cutoff) {
			delete(s.pings, id)
			deleted++
		}
	}
	return deleted, nil
}

// Get returns a copy of one ping. Test-only helper.
func (s *PingStore) Get(id int64) (types.SensorPing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pings[id]
	if !ok {
		return types.SensorPing{}, false
	}
	return *p, true
}
