package types

import "time"

// RoleDirection says how a device's detection should be interpreted when
// it is one half of a matched pair. Replaces the old device-id-suffix
// parity convention with an explicit registration-time attribute.
type RoleDirection string

const (
	RoleEntryFacing RoleDirection = "entry_facing"
	RoleExitFacing  RoleDirection = "exit_facing"
	RoleNeutral     RoleDirection = "neutral"
)

// ValidRoleDirection reports whether s is a recognized role direction.
func ValidRoleDirection(s string) bool {
	switch RoleDirection(s) {
	case RoleEntryFacing, RoleExitFacing, RoleNeutral:
		return true
	}
	return false
}

// DeviceRole is the registry's view of one boundary device. Read-only to
// the correlation engine.
type DeviceRole struct {
	DeviceID   string        `yaml:"device_id"`
	ClusterID  int           `yaml:"cluster_id"`
	Room       string        `yaml:"room"`
	Direction  RoleDirection `yaml:"direction"`
	Modalities []Modality    `yaml:"modalities"`
}

// DeviceStatus mirrors the registry's liveness view of a device.
type DeviceStatus struct {
	DeviceID string
	LastSeen time.Time
}
