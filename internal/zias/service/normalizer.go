package service

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/zias-project/zias/server/internal/metrics"
	"github.com/zias-project/zias/server/internal/zias/types"
)

var (
	ErrMissingDevice    = errors.New("device id is required")
	ErrMissingIdentity  = errors.New("identity key is required")
	ErrMissingTimestamp = errors.New("timestamp is required")
	ErrBadTimestamp     = errors.New("timestamp is not RFC3339")
	ErrBadPayload       = errors.New("payload is not valid JSON")
	ErrBadModality      = errors.New("unknown sensor modality")
)

// Normalizer validates raw channel payloads and canonicalizes them into
// SensorPing / BeaconReport values. It holds no state across calls;
// rejected payloads are dropped, counted, and logged, never partially
// forwarded.
type Normalizer struct {
	logger *log.Logger
}

func NewNormalizer(logger *log.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// SensorPing canonicalizes a boundary-device payload. deviceID comes
// from the transport (topic segment), everything else from the body.
func (n *Normalizer) SensorPing(deviceID string, payload []byte) (types.SensorPing, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return types.SensorPing{}, n.reject("sensor", "missing_device", ErrMissingDevice)
	}

	var p types.SensorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return types.SensorPing{}, n.reject("sensor", "bad_json", ErrBadPayload)
	}

	identity := strings.TrimSpace(p.ID)
	if identity == "" {
		return types.SensorPing{}, n.reject("sensor", "missing_identity", ErrMissingIdentity)
	}

	ts, err := parseTimestamp(p.Timestamp)
	if err != nil {
		return types.SensorPing{}, n.reject("sensor", "bad_timestamp", err)
	}

	modality := types.ModalityRFID
	switch strings.ToLower(strings.TrimSpace(p.Modality)) {
	case "", "rfid":
	case "pir":
		modality = types.ModalityPIR
	default:
		return types.SensorPing{}, n.reject("sensor", "bad_modality", ErrBadModality)
	}

	return types.SensorPing{
		DeviceID:    deviceID,
		ClusterID:   p.ClusterID,
		IdentityKey: identity,
		Modality:    modality,
		Active:      p.Sensor,
		Timestamp:   ts,
	}, nil
}

// BeaconReport canonicalizes a mobile beacon payload published over the
// transport. identityKey comes from the topic segment.
func (n *Normalizer) BeaconReport(identityKey string, payload []byte) (types.BeaconReport, error) {
	var p types.BeaconPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return types.BeaconReport{}, n.reject("beacon", "bad_json", ErrBadPayload)
	}
	return n.ValidateBeacon(identityKey, p)
}

// ValidateBeacon canonicalizes an already-decoded beacon payload. Used
// by both the transport path and the direct HTTP report endpoint.
func (n *Normalizer) ValidateBeacon(identityKey string, p types.BeaconPayload) (types.BeaconReport, error) {
	identityKey = strings.TrimSpace(identityKey)
	if identityKey == "" {
		return types.BeaconReport{}, n.reject("beacon", "missing_identity", ErrMissingIdentity)
	}

	ts, err := parseTimestamp(p.Timestamp)
	if err != nil {
		return types.BeaconReport{}, n.reject("beacon", "bad_timestamp", err)
	}

	eventType := strings.ToLower(strings.TrimSpace(p.EventType))
	if eventType == "" {
		eventType = "unknown"
	}

	return types.BeaconReport{
		IdentityKey: identityKey,
		BeaconID:    strings.TrimSpace(p.BeaconID),
		RSSI:        p.RSSI,
		Location:    p.Location,
		EventType:   eventType,
		AppVersion:  strings.TrimSpace(p.AppVersion),
		Timestamp:   ts,
	}, nil
}

func (n *Normalizer) reject(channel, reason string, err error) error {
	metrics.IngestDropped.WithLabelValues(channel, reason).Inc()
	n.logger.Printf("normalizer: drop channel=%s reason=%s", channel, reason)
	return err
}

// parseTimestamp accepts RFC3339 with or without sub-second precision.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissingTimestamp
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, ErrBadTimestamp
}
