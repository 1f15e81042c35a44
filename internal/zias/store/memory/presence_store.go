package memory

import (
	"context"
	"sync"
	"time"

	"github.com/zias-project/zias/server/internal/zias/store"
	"github.com/zias-project/zias/server/internal/zias/types"
)

// PresenceStore is the in-process presence map. Expiry is evaluated
// lazily on read; an entry older than the TTL is treated as absent and
// dropped on the next access, which mirrors the key-expiry behavior of
// the Redis backend.
type PresenceStore struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]presenceEntry
}

type presenceEntry struct {
	store.PresenceEntry
	expiresAt time.Time
}

func NewPresenceStore(ttl time.Duration) *PresenceStore {
	return &PresenceStore{
		ttl:     ttl,
		entries: make(map[string]presenceEntry),
	}
}

func (s *PresenceStore) Upsert(_ context.Context, e store.PresenceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.IdentityKey] = presenceEntry{
		PresenceEntry: e,
		expiresAt:     time.Now().Add(s.ttl),
	}
	return nil
}

func (s *PresenceStore) Get(_ context.Context, identityKey string) (store.PresenceEntry, bool, error) {
	now := time.Now()

	s.mu.RLock()
	e, ok := s.entries[identityKey]
	s.mu.RUnlock()

	if !ok {
		return store.PresenceEntry{}, false, nil
	}
	if now.After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a fresher upsert may have landed.
		if cur, still := s.entries[identityKey]; still && now.After(cur.expiresAt) {
			delete(s.entries, identityKey)
		}
		s.mu.Unlock()
		return store.PresenceEntry{}, false, nil
	}
	return e.PresenceEntry, true, nil
}

func (s *PresenceStore) Occupancy(_ context.Context, room string) ([]string, error) {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for identity, e := range s.entries {
		if now.After(e.expiresAt) {
			continue
		}
		if e.Room == room && e.Direction == types.DirectionEntry {
			out = append(out, identity)
		}
	}
	return out, nil
}
