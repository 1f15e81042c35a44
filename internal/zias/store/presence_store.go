package store

import (
	"context"
	"time"

	"github.com/zias-project/zias/server/internal/zias/types"
)

// PresenceEntry is the ephemeral "who is currently where" record for one
// identity, overwritten by each emitted attendance event.
type PresenceEntry struct {
	IdentityKey string          `json:"identity_key"`
	Direction   types.Direction `json:"direction"`
	Room        string          `json:"room"`
	LastEvent   time.Time       `json:"last_event"`
}

// PresenceStore is a TTL-bound presence map. Entries expire on their own
// after the configured staleness bound; after that, "no recent signal"
// is indistinguishable from "not present". Reads are point-in-time
// snapshots and must never block event emission.
type PresenceStore interface {
	Upsert(ctx context.Context, e PresenceEntry) error
	Get(ctx context.Context, identityKey string) (PresenceEntry, bool, error)

	// Occupancy returns the identities whose unexpired entry has
	// Direction entry and the given room.
	Occupancy(ctx context.Context, room string) ([]string, error)
}
