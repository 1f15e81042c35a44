package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/zias-project/zias/server/internal/db"
	"github.com/zias-project/zias/server/internal/zias/types"
)

type DeviceStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewDeviceStore(db *sql.DB, writer *dbpkg.Worker) *DeviceStore {
	return &DeviceStore{db: db, writer: writer}
}

func (s *DeviceStore) Role(ctx context.Context, deviceID string) (types.DeviceRole, bool, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return types.DeviceRole{}, false, nil
	}

	var (
		role       types.DeviceRole
		direction  string
		modalities string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT device_id, cluster_id, room, direction, modalities
FROM devices
WHERE device_id = ?;
`, deviceID).Scan(&role.DeviceID, &role.ClusterID, &role.Room, &direction, &modalities)

	if err == sql.ErrNoRows {
		return types.DeviceRole{}, false, nil
	}
	if err != nil {
		return types.DeviceRole{}, false, fmt.Errorf("Role query: %w", err)
	}

	role.Direction = types.RoleDirection(direction)
	role.Modalities = splitModalities(modalities)
	return role, true, nil
}

func (s *DeviceStore) RoomForCluster(ctx context.Context, clusterID int) (string, bool, error) {
	var room string
	err := s.db.QueryRowContext(ctx, `
SELECT room FROM devices
WHERE cluster_id = ? AND room != ''
LIMIT 1;
`, clusterID).Scan(&room)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("RoomForCluster query: %w", err)
	}
	return room, true, nil
}

// MarkSeen ensures a row exists for the device, even an unregistered
// one, and updates last-seen. Unregistered devices stay NEUTRAL until
// an operator assigns them a role.
func (s *DeviceStore) MarkSeen(ctx context.Context, deviceID string, t time.Time) error {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}
	ms := t.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO devices(
  device_id, cluster_id, room, direction, created_at_ms, updated_at_ms
) VALUES (?, 0, '', 'neutral', ?, ?);
`, deviceID, ms, ms); err != nil {
			return fmt.Errorf("MarkSeen insert device: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE devices
SET last_seen_at_ms = ?,
    updated_at_ms   = ?
WHERE device_id = ?;
`, ms, ms, deviceID); err != nil {
			return fmt.Errorf("MarkSeen update device: %w", err)
		}

		return nil
	})
}

// ReplaceRoles upserts the full role set from the roles file. Rows for
// devices no longer in the file keep their last-seen history but fall
// back to NEUTRAL so they stop contributing directions.
func (s *DeviceStore) ReplaceRoles(ctx context.Context, roles []types.DeviceRole) error {
	nowMs := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE devices SET direction = 'neutral', updated_at_ms = ?;
`, nowMs); err != nil {
			return fmt.Errorf("ReplaceRoles reset: %w", err)
		}

		for _, role := range roles {
			id := strings.TrimSpace(role.DeviceID)
			if id == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO devices(
  device_id, cluster_id, room, direction, modalities, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(device_id) DO UPDATE SET
  cluster_id    = excluded.cluster_id,
  room          = excluded.room,
  direction     = excluded.direction,
  modalities    = excluded.modalities,
  updated_at_ms = excluded.updated_at_ms;
`, id, role.ClusterID, role.Room, string(role.Direction), joinModalities(role.Modalities), nowMs, nowMs); err != nil {
				return fmt.Errorf("ReplaceRoles upsert %s: %w", id, err)
			}
		}
		return nil
	})
}

func joinModalities(ms []types.Modality) string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		parts = append(parts, string(m))
	}
	return strings.Join(parts, ",")
}

func splitModalities(s string) []types.Modality {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]types.Modality, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, types.Modality(p))
		}
	}
	return out
}
