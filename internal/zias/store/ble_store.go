package store

import (
	"context"
	"time"

	"github.com/zias-project/zias/server/internal/zias/types"
)

// BLEEventStore keeps the raw beacon sighting log, including
// informational "approaching" reports that never become attendance
// events.
type BLEEventStore interface {
	Record(ctx context.Context, rep types.BeaconReport) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
