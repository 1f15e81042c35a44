package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SeedDev inserts a starter doorway cluster so a dev environment can
// correlate pings without a roles file: two opposing RFID readers on
// cluster 1 guarding room 101, plus a beacon-only marker device.
func SeedDev(ctx context.Context, db *sql.DB) error {
	now := time.Now().UTC().UnixMilli()

	devices := []struct {
		id        string
		cluster   int
		room      string
		direction string
		modality  string
	}{
		{"rfid-dev-entry", 1, "101", "entry_facing", "rfid"},
		{"rfid-dev-exit", 1, "101", "exit_facing", "rfid"},
		{"pir-dev-hall", 1, "101", "neutral", "pir"},
	}

	for _, d := range devices {
		if _, err := db.ExecContext(ctx, `
INSERT INTO devices(
  device_id, cluster_id, room, direction, modalities, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(device_id) DO UPDATE SET
  cluster_id    = excluded.cluster_id,
  room          = excluded.room,
  direction     = excluded.direction,
  modalities    = excluded.modalities,
  updated_at_ms = excluded.updated_at_ms;
`, d.id, d.cluster, d.room, d.direction, d.modality, now, now); err != nil {
			return fmt.Errorf("seed device %s: %w", d.id, err)
		}
	}

	return nil
}
