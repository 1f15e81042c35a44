package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/zias-project/zias/server/internal/zias/types"
)

type DeviceStore struct {
	mu    sync.RWMutex
	roles map[string]types.DeviceRole
	seen  map[string]time.Time
}

func NewDeviceStore(roles []types.DeviceRole) *DeviceStore {
	s := &DeviceStore{
		roles: make(map[string]types.DeviceRole, len(roles)),
		seen:  make(map[string]time.Time),
	}
	s.replace(roles)
	return s
}

func (s *DeviceStore) Role(_ context.Context, deviceID string) (types.DeviceRole, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[deviceID]
	return role, ok, nil
}

func (s *DeviceStore) RoomForCluster(_ context.Context, clusterID int) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, role := range s.roles {
		if role.ClusterID == clusterID && role.Room != "" {
			return role.Room, true, nil
		}
	}
	return "", false, nil
}

func (s *DeviceStore) MarkSeen(_ context.Context, deviceID string, t time.Time) error {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[deviceID] = t
	return nil
}

func (s *DeviceStore) ReplaceRoles(_ context.Context, roles []types.DeviceRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(roles)
	return nil
}

func (s *DeviceStore) replace(roles []types.DeviceRole) {
	s.roles = make(map[string]types.DeviceRole, len(roles))
	for _, role := range roles {
		id := strings.TrimSpace(role.DeviceID)
		if id == "" {
			continue
		}
		role.DeviceID = id
		s.roles[id] = role
	}
}

// LastSeen returns the recorded liveness time for a device.
// Test-only helper.
func (s *DeviceStore) LastSeen(deviceID string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.seen[deviceID]
	return t, ok
}
