package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/zias-project/zias/server/internal/db"
	"github.com/zias-project/zias/server/internal/zias/store"
	"github.com/zias-project/zias/server/internal/zias/types"
)

const defaultListLimit = 100

// EventStore is the durable attendance sink. Appends use
// INSERT OR IGNORE on the event_id primary key, so a retried or racing
// emission of the same crossing lands exactly once.
type EventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewEventStore(db *sql.DB, writer *dbpkg.Worker) *EventStore {
	return &EventStore{db: db, writer: writer}
}

func (s *EventStore) Append(ctx context.Context, ev types.AttendanceEvent) (bool, error) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	recordedMs := time.Now().UTC().UnixMilli()

	var inserted bool
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO attendance_events(
  event_id, identity_key, room, direction, occurred_at_ms, confidence, modality, recorded_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`,
			ev.EventID, ev.IdentityKey, ev.Room, string(ev.Direction),
			ev.Timestamp.UTC().UnixMilli(), ev.Confidence, string(ev.Modality), recordedMs,
		)
		if err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("Append rows: %w", err)
		}
		inserted = n == 1
		return nil
	})
	return inserted, err
}

func (s *EventStore) List(ctx context.Context, q store.EventQuery) ([]types.AttendanceEvent, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		conds []string
		args  []any
	)
	if q.IdentityKey != "" {
		conds = append(conds, "identity_key = ?")
		args = append(args, q.IdentityKey)
	}
	if q.Room != "" {
		conds = append(conds, "room = ?")
		args = append(args, q.Room)
	}
	if !q.From.IsZero() {
		conds = append(conds, "occurred_at_ms >= ?")
		args = append(args, q.From.UTC().UnixMilli())
	}
	if !q.To.IsZero() {
		conds = append(conds, "occurred_at_ms <= ?")
		args = append(args, q.To.UTC().UnixMilli())
	}

	query := `
SELECT event_id, identity_key, room, direction, occurred_at_ms, confidence, modality
FROM attendance_events`
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += "\nORDER BY occurred_at_ms DESC\nLIMIT ?;"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List query: %w", err)
	}
	defer rows.Close()

	var out []types.AttendanceEvent
	for rows.Next() {
		var (
			ev         types.AttendanceEvent
			direction  string
			modality   string
			occurredMs int64
		)
		if err := rows.Scan(&ev.EventID, &ev.IdentityKey, &ev.Room, &direction, &occurredMs, &ev.Confidence, &modality); err != nil {
			return nil, fmt.Errorf("List scan: %w", err)
		}
		ev.Direction = types.Direction(direction)
		ev.Modality = types.Modality(modality)
		ev.Timestamp = time.UnixMilli(occurredMs).UTC()
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List rows: %w", err)
	}
	return out, nil
}
