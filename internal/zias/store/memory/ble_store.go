package memory

import (
	"context"
	"sync"
	"time"

	"github.com/zias-project/zias/server/internal/zias/types"
)

// BLEEventStore is an in-memory beacon sighting log.
type BLEEventStore struct {
	mu      sync.Mutex
	reports []types.BeaconReport
}

func NewBLEEventStore() *BLEEventStore {
	return &BLEEventStore{}
}

func (s *BLEEventStore) Record(_ context.Context, rep types.BeaconReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, rep)
	return nil
}

func (s *BLEEventStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.reports[:0]
	var deleted int64
	for _, r := range s.reports {
		if r.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.reports = kept
	return deleted, nil
}

// Reports returns a copy of all recorded sightings. Test-only helper.
func (s *BLEEventStore) Reports() []types.BeaconReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.BeaconReport, len(s.reports))
	copy(out, s.reports)
	return out
}
