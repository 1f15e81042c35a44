// Package redis provides a Redis-backed presence store for deployments
// where occupancy queries are served by more than one process. Keys are
// zias:presence:<identity> with a TTL, so expiry is handled by Redis
// itself, the same way the in-memory backend ages entries out.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zias-project/zias/server/internal/zias/store"
	"github.com/zias-project/zias/server/internal/zias/types"
)

const keyPrefix = "zias:presence:"

type PresenceStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresenceStore(client *redis.Client, ttl time.Duration) *PresenceStore {
	return &PresenceStore{client: client, ttl: ttl}
}

func (s *PresenceStore) Upsert(ctx context.Context, e store.PresenceEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("Upsert marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+e.IdentityKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("Upsert set: %w", err)
	}
	return nil
}

func (s *PresenceStore) Get(ctx context.Context, identityKey string) (store.PresenceEntry, bool, error) {
	data, err := s.client.Get(ctx, keyPrefix+identityKey).Bytes()
	if err == redis.Nil {
		return store.PresenceEntry{}, false, nil
	}
	if err != nil {
		return store.PresenceEntry{}, false, fmt.Errorf("Get: %w", err)
	}

	var e store.PresenceEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return store.PresenceEntry{}, false, fmt.Errorf("Get unmarshal: %w", err)
	}
	return e, true, nil
}

func (s *PresenceStore) Occupancy(ctx context.Context, room string) ([]string, error) {
	var out []string

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, fmt.Errorf("Occupancy get %s: %w", iter.Val(), err)
		}

		var e store.PresenceEntry
		if err := json.Unmarshal(data, &e); err != nil {
			continue // skip malformed entries rather than failing the query
		}
		if e.Room == room && e.Direction == types.DirectionEntry {
			out = append(out, e.IdentityKey)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("Occupancy scan: %w", err)
	}
	return out, nil
}
