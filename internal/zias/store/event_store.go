package store

import (
	"context"
	"time"

	"github.com/zias-project/zias/server/internal/zias/types"
)

// EventQuery filters the attendance log. Zero values mean "no filter";
// Limit 0 falls back to the implementation default.
type EventQuery struct {
	IdentityKey string
	Room        string
	From        time.Time
	To          time.Time
	Limit       int
}

// EventStore is the append-only persistence sink for attendance
// decisions. Append is idempotent on EventID: a record whose id already
// exists is ignored and reported as not inserted, so a retried or
// racing emission can never double-count a crossing.
type EventStore interface {
	Append(ctx context.Context, ev types.AttendanceEvent) (inserted bool, err error)
	List(ctx context.Context, q EventQuery) ([]types.AttendanceEvent, error)
}
