package store

import (
	"context"
	"time"

	"github.com/zias-project/zias/server/internal/zias/types"
)

// PingStore persists raw sensor pings and owns the claimed flag that
// guards against double-correlation. Implementations must make ClaimPair
// an atomic compare-and-set: both pings flip to claimed together or
// neither does, and only one of two racing passes can win.
type PingStore interface {
	// Insert appends a ping and returns its assigned id.
	Insert(ctx context.Context, ping types.SensorPing) (int64, error)

	// ClaimPair marks both pings claimed iff both are currently
	// unclaimed. Returns false (with no error) when another pass
	// already claimed either one.
	ClaimPair(ctx context.Context, a, b int64) (bool, error)

	// Claim marks a single ping claimed. Used for pings the engine
	// discards (debounce) so a later sweep never re-offers them.
	// Idempotent; claiming an already-claimed or missing id is a no-op.
	Claim(ctx context.Context, id int64) error

	// UnclaimedSince returns unclaimed pings observed at or after the
	// cutoff, oldest first. Used by the batch sweep.
	UnclaimedSince(ctx context.Context, cutoff time.Time) ([]types.SensorPing, error)

	// PruneOlderThan deletes pings observed before the cutoff,
	// claimed or not, and returns the number removed.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
