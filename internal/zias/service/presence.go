package service

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/zias-project/zias/server/internal/zias/store"
	"github.com/zias-project/zias/server/internal/zias/types"
)

// PresenceManager maintains the ephemeral "who is currently where" view
// derived from emitted attendance events. Queries read a snapshot from
// the backing store and never touch the correlation engine.
type PresenceManager struct {
	store  store.PresenceStore
	logger *log.Logger
}

func NewPresenceManager(st store.PresenceStore, logger *log.Logger) *PresenceManager {
	return &PresenceManager{store: st, logger: logger}
}

// Apply overwrites the identity's presence with the latest event.
// Called once per emitted attendance event.
func (m *PresenceManager) Apply(ctx context.Context, ev types.AttendanceEvent) error {
	return m.store.Upsert(ctx, store.PresenceEntry{
		IdentityKey: ev.IdentityKey,
		Direction:   ev.Direction,
		Room:        ev.Room,
		LastEvent:   ev.Timestamp,
	})
}

// Occupancy returns the identities currently inside a room. Eventually
// consistent with emitted events; expired entries count as absent.
func (m *PresenceManager) Occupancy(ctx context.Context, room string) (types.OccupancyResponse, error) {
	ids, err := m.store.Occupancy(ctx, room)
	if err != nil {
		return types.OccupancyResponse{}, err
	}
	sort.Strings(ids)
	if ids == nil {
		ids = []string{}
	}
	return types.OccupancyResponse{
		Room:       room,
		Count:      len(ids),
		Identities: ids,
	}, nil
}

// Presence returns the current state of one identity, or absent=false
// when there is no unexpired entry.
func (m *PresenceManager) Presence(ctx context.Context, identityKey string) (types.PresenceResponse, bool, error) {
	e, ok, err := m.store.Get(ctx, identityKey)
	if err != nil || !ok {
		return types.PresenceResponse{}, false, err
	}
	return types.PresenceResponse{
		IdentityKey: e.IdentityKey,
		Direction:   string(e.Direction),
		Room:        e.Room,
		LastSeen:    e.LastEvent.UTC().Format(time.RFC3339Nano),
	}, true, nil
}
