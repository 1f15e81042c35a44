package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Direction of a resolved crossing.
type Direction string

const (
	DirectionEntry Direction = "entry"
	DirectionExit  Direction = "exit"
)

// Confidence weights per decision source. Two independent sensors
// confirming each other outrank a self-reported beacon.
const (
	ConfidencePairedSensors = 0.95
	ConfidenceBeacon        = 0.85
)

// AttendanceEvent is one directional attendance decision. Append-only;
// EventID is deterministic so redundant emission attempts collide
// harmlessly at the sink.
type AttendanceEvent struct {
	EventID     string    `json:"event_id"`
	IdentityKey string    `json:"identity_key"`
	Room        string    `json:"room"`
	Direction   Direction `json:"direction"`
	Timestamp   time.Time `json:"timestamp"`
	Confidence  float64   `json:"confidence"`
	Modality    Modality  `json:"modality"`
}

// eventNamespace is the fixed UUID namespace for attendance event ids.
var eventNamespace = uuid.MustParse("8a5c1f6e-2b0d-47a3-9c41-d9be30f7e1a2")

// EventID derives the idempotency key for a crossing. scope is the
// cluster id for paired-sensor events or the beacon id for direct
// reports; the timestamp is truncated to the second so two passes that
// resolve the same pair always agree.
func EventID(identityKey, scope string, ts time.Time, dir Direction) string {
	name := fmt.Sprintf("%s|%s|%d|%s", identityKey, scope, ts.UTC().Unix(), dir)
	return uuid.NewSHA1(eventNamespace, []byte(name)).String()
}
