package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/zias-project/zias/server/internal/db"
	"github.com/zias-project/zias/server/internal/zias/types"
)

// errClaimLost aborts the claim transaction when either ping of a pair
// was already claimed; the worker rolls the transaction back so the
// other ping is never left half-claimed.
var errClaimLost = errors.New("claim lost")

type PingStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewPingStore(db *sql.DB, writer *dbpkg.Worker) *PingStore {
	return &PingStore{db: db, writer: writer}
}

func (s *PingStore) Insert(ctx context.Context, ping types.SensorPing) (int64, error) {
	if ping.Timestamp.IsZero() {
		ping.Timestamp = time.Now().UTC()
	}

	var active int
	if ping.Active {
		active = 1
	}

	var id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO sensor_pings(
  device_id, cluster_id, identity_key, modality, active, observed_at_ms, claimed
) VALUES (?, ?, ?, ?, ?, ?, 0);
`,
			ping.DeviceID, ping.ClusterID, ping.IdentityKey,
			string(ping.Modality), active, ping.Timestamp.UTC().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("Insert ping: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("Insert ping id: %w", err)
		}
		return nil
	})
	return id, err
}

// ClaimPair flips claimed on both rows in one transaction, conditional on
// both still being unclaimed. Exactly two affected rows means this pass
// won; anything less rolls back and reports a lost race.
func (s *PingStore) ClaimPair(ctx context.Context, a, b int64) (bool, error) {
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE sensor_pings SET claimed = 1
WHERE id IN (?, ?) AND claimed = 0;
`, a, b)
		if err != nil {
			return fmt.Errorf("ClaimPair update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("ClaimPair rows: %w", err)
		}
		if n != 2 {
			return errClaimLost
		}
		return nil
	})
	if errors.Is(err, errClaimLost) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Claim marks one ping claimed, unconditionally. Used for discarded
// pings; there is no race to lose, so no row-count check.
func (s *PingStore) Claim(ctx context.Context, id int64) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE sensor_pings SET claimed = 1
WHERE id = ?;
`, id); err != nil {
			return fmt.Errorf("Claim update: %w", err)
		}
		return nil
	})
}

func (s *PingStore) UnclaimedSince(ctx context.Context, cutoff time.Time) ([]types.SensorPing, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, device_id, cluster_id, identity_key, modality, active, observed_at_ms
FROM sensor_pings
WHERE claimed = 0 AND observed_at_ms >= ?
ORDER BY observed_at_ms ASC;
`, cutoff.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("UnclaimedSince query: %w", err)
	}
	defer rows.Close()

	var out []types.SensorPing
	for rows.Next() {
		var (
			p          types.SensorPing
			modality   string
			active     int
			observedMs int64
		)
		if err := rows.Scan(&p.ID, &p.DeviceID, &p.ClusterID, &p.IdentityKey, &modality, &active, &observedMs); err != nil {
			return nil, fmt.Errorf("UnclaimedSince scan: %w", err)
		}
		p.Modality = types.Modality(modality)
		p.Active = active == 1
		p.Timestamp = time.UnixMilli(observedMs).UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("UnclaimedSince rows: %w", err)
	}
	return out, nil
}

// PruneOlderThan deletes ping rows observed before the cutoff. Uses the
// idx_pings_claimed_time index for an efficient range scan.
func (s *PingStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM sensor_pings
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
