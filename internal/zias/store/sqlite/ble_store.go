package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/zias-project/zias/server/internal/db"
	"github.com/zias-project/zias/server/internal/zias/types"
)

type BLEEventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewBLEEventStore(db *sql.DB, writer *dbpkg.Worker) *BLEEventStore {
	return &BLEEventStore{db: db, writer: writer}
}

func (s *BLEEventStore) Record(ctx context.Context, rep types.BeaconReport) error {
	if rep.Timestamp.IsZero() {
		rep.Timestamp = time.Now().UTC()
	}

	var lat, lon any
	if rep.Location != nil {
		lat = rep.Location.Latitude
		lon = rep.Location.Longitude
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO ble_events(
  identity_key, beacon_id, rssi, latitude, longitude, event_type, client_version, observed_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`,
			rep.IdentityKey, rep.BeaconID, rep.RSSI, lat, lon,
			rep.EventType, rep.AppVersion, rep.Timestamp.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("Record insert: %w", err)
		}
		return nil
	})
}

func (s *BLEEventStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM ble_events
WHERE observed_at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
