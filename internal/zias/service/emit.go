package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zias-project/zias/server/internal/zias/store"
	"github.com/zias-project/zias/server/internal/zias/types"
)

const (
	emitAttempts     = 3
	emitBackoffFirst = 100 * time.Millisecond
)

// appendWithRetry pushes an event at the sink with exponential backoff.
// The append is idempotent on the event id, so retrying after an
// ambiguous failure cannot double-count. Returns whether this call's
// insert actually landed the record.
func appendWithRetry(ctx context.Context, logger *log.Logger, events store.EventStore, ev types.AttendanceEvent) (bool, error) {
	backoff := emitBackoffFirst

	var lastErr error
	for attempt := 1; attempt <= emitAttempts; attempt++ {
		inserted, err := events.Append(ctx, ev)
		if err == nil {
			return inserted, nil
		}
		lastErr = err
		logger.Printf("emit: append attempt %d/%d failed event=%s: %v", attempt, emitAttempts, ev.EventID, err)

		if attempt == emitAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return false, fmt.Errorf("append event %s: %w", ev.EventID, lastErr)
}
