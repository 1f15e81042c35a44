package store

import (
	"context"
	"time"

	"github.com/zias-project/zias/server/internal/zias/types"
)

// DeviceStore holds the device role registry consumed, not owned, by
// the correlation engine.
type DeviceStore interface {
	// Role returns the registered role for a device. ok is false for
	// devices that were never registered.
	Role(ctx context.Context, deviceID string) (role types.DeviceRole, ok bool, err error)

	// RoomForCluster returns the room registered for a cluster's
	// devices, if any device of that cluster carries one.
	RoomForCluster(ctx context.Context, clusterID int) (room string, ok bool, err error)

	// MarkSeen updates the device's last-seen time. Unregistered
	// devices are still tracked so operators can spot them.
	MarkSeen(ctx context.Context, deviceID string, t time.Time) error

	// ReplaceRoles swaps in a full new role set (seed or reload).
	ReplaceRoles(ctx context.Context, roles []types.DeviceRole) error
}
