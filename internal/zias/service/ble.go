package service

import (
	"context"
	"log"
	"strings"

	"github.com/zias-project/zias/server/internal/metrics"
	"github.com/zias-project/zias/server/internal/zias/store"
	"github.com/zias-project/zias/server/internal/zias/types"
)

// BLEService converts self-declared mobile beacon reports directly into
// attendance events. No pairing: the client asserts the direction, so
// the confidence is fixed below the paired-sensor path. The
// anti-tailgating debounce is shared with the correlator so a flaky
// client cannot double-report a crossing either path already emitted.
type BLEService struct {
	events   store.EventStore
	ble      store.BLEEventStore
	presence *PresenceManager
	debounce *Debouncer
	logger   *log.Logger
}

func NewBLEService(
	events store.EventStore,
	ble store.BLEEventStore,
	presence *PresenceManager,
	debounce *Debouncer,
	logger *log.Logger,
) *BLEService {
	return &BLEService{
		events:   events,
		ble:      ble,
		presence: presence,
		debounce: debounce,
		logger:   logger,
	}
}

// Process records the raw sighting and, for entry/exit declarations,
// emits an attendance event. Returns the outcome and, when this call
// emitted, the event id.
func (s *BLEService) Process(ctx context.Context, rep types.BeaconReport) (Outcome, string, error) {
	// The raw sighting log is best-effort; losing a row must not lose
	// the attendance decision.
	if err := s.ble.Record(ctx, rep); err != nil {
		s.logger.Printf("ble: record sighting identity=%s: %v", rep.IdentityKey, err)
	}

	var dir types.Direction
	switch rep.EventType {
	case types.BeaconEventEntry:
		dir = types.DirectionEntry
	case types.BeaconEventExit:
		dir = types.DirectionExit
	case types.BeaconEventApproaching:
		// Informational only; a "nearby" hint, never an event.
		return OutcomeObserved, "", nil
	default:
		s.logger.Printf("ble: ignoring event_type=%q identity=%s", rep.EventType, rep.IdentityKey)
		return OutcomeObserved, "", nil
	}

	if s.debounce.Suppressed(rep.IdentityKey, rep.Timestamp) {
		metrics.PingsSuppressed.Inc()
		return OutcomeSuppressed, "", nil
	}

	ev := types.AttendanceEvent{
		EventID:     types.EventID(rep.IdentityKey, rep.BeaconID, rep.Timestamp, dir),
		IdentityKey: rep.IdentityKey,
		Room:        RoomFromBeaconID(rep.BeaconID),
		Direction:   dir,
		Timestamp:   rep.Timestamp,
		Confidence:  types.ConfidenceBeacon,
		Modality:    types.ModalityBLE,
	}

	inserted, err := appendWithRetry(ctx, s.logger, s.events, ev)
	if err != nil {
		return OutcomeFailed, "", err
	}
	if !inserted {
		return OutcomeDuplicate, "", nil
	}

	s.debounce.MarkEmitted(rep.IdentityKey, ev.Timestamp)
	if perr := s.presence.Apply(ctx, ev); perr != nil {
		s.logger.Printf("ble: presence update identity=%s: %v", rep.IdentityKey, perr)
	}

	metrics.EventsEmitted.WithLabelValues(string(dir), "ble").Inc()
	s.logger.Printf("attendance: %s identity=%s room=%s beacon=%s confidence=%.2f",
		dir, rep.IdentityKey, ev.Room, rep.BeaconID, ev.Confidence)
	return OutcomeMatched, ev.EventID, nil
}

// RoomFromBeaconID extracts the room token from a structured beacon id
// like "zias-main-101-entry" (third dash-separated segment). Absent or
// short ids map to "unknown" rather than failing the event.
func RoomFromBeaconID(beaconID string) string {
	parts := strings.Split(beaconID, "-")
	if len(parts) > 2 && parts[2] != "" {
		return parts[2]
	}
	return "unknown"
}
