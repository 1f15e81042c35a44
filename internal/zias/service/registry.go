package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zias-project/zias/server/internal/zias/store"
	"github.com/zias-project/zias/server/internal/zias/types"
)

// DeviceRegistry answers role and room questions for the correlation
// engine and tracks device liveness. Roles are seeded from a YAML file
// at startup and may be re-seeded at runtime.
type DeviceRegistry struct {
	store store.DeviceStore
}

func NewDeviceRegistry(st store.DeviceStore) *DeviceRegistry {
	return &DeviceRegistry{store: st}
}

func (r *DeviceRegistry) Role(ctx context.Context, deviceID string) (types.DeviceRole, bool, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return types.DeviceRole{}, false, nil
	}
	return r.store.Role(ctx, deviceID)
}

func (r *DeviceRegistry) RoomForCluster(ctx context.Context, clusterID int) (string, bool, error) {
	return r.store.RoomForCluster(ctx, clusterID)
}

func (r *DeviceRegistry) NoteSeen(ctx context.Context, deviceID string) error {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil
	}
	return r.store.MarkSeen(ctx, deviceID, time.Now().UTC())
}

// rolesFile is the on-disk shape of the device roles seed.
type rolesFile struct {
	Devices []types.DeviceRole `yaml:"devices"`
}

// LoadRolesFile parses a YAML roles file and replaces the registry's
// role set with its contents. Returns the number of roles loaded.
func (r *DeviceRegistry) LoadRolesFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read roles file: %w", err)
	}

	var f rolesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("parse roles file: %w", err)
	}

	for i, role := range f.Devices {
		if strings.TrimSpace(role.DeviceID) == "" {
			return 0, fmt.Errorf("roles file: entry %d has no device_id", i)
		}
		if role.Direction == "" {
			f.Devices[i].Direction = types.RoleNeutral
			continue
		}
		if !types.ValidRoleDirection(string(role.Direction)) {
			return 0, fmt.Errorf("roles file: device %s has unknown direction %q", role.DeviceID, role.Direction)
		}
	}

	if err := r.store.ReplaceRoles(ctx, f.Devices); err != nil {
		return 0, fmt.Errorf("replace roles: %w", err)
	}
	return len(f.Devices), nil
}
