package service_test

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/zias-project/zias/server/internal/zias/service"
	"github.com/zias-project/zias/server/internal/zias/types"
)

func newNormalizer() *service.Normalizer {
	return service.NewNormalizer(log.New(io.Discard, "", 0))
}

func TestSensorPing_Valid(t *testing.T) {
	n := newNormalizer()

	payload := []byte(`{"id":"TAG-001","cluster_id":3,"sensor":true,"timestamp":"2026-03-02T09:00:00Z"}`)
	p, err := n.SensorPing("rfid-entry-01", payload)
	if err != nil {
		t.Fatalf("SensorPing: %v", err)
	}
	if p.DeviceID != "rfid-entry-01" {
		t.Errorf("expected device_id=rfid-entry-01, got %q", p.DeviceID)
	}
	if p.IdentityKey != "TAG-001" {
		t.Errorf("expected identity=TAG-001, got %q", p.IdentityKey)
	}
	if p.ClusterID != 3 {
		t.Errorf("expected cluster_id=3, got %d", p.ClusterID)
	}
	if p.Modality != types.ModalityRFID {
		t.Errorf("expected rfid modality, got %q", p.Modality)
	}
	if !p.Active {
		t.Error("expected active=true")
	}
	want := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if !p.Timestamp.Equal(want) {
		t.Errorf("expected timestamp=%v, got %v", want, p.Timestamp)
	}
	if p.Claimed {
		t.Error("fresh ping must not be claimed")
	}
}

func TestSensorPing_PIRModality(t *testing.T) {
	n := newNormalizer()

	payload := []byte(`{"id":"TAG-001","cluster_id":3,"sensor":true,"modality":"PIR","timestamp":"2026-03-02T09:00:00Z"}`)
	p, err := n.SensorPing("pir-hall-01", payload)
	if err != nil {
		t.Fatalf("SensorPing: %v", err)
	}
	if p.Modality != types.ModalityPIR {
		t.Errorf("expected pir modality, got %q", p.Modality)
	}
}

func TestSensorPing_SubSecondTimestamp(t *testing.T) {
	n := newNormalizer()

	payload := []byte(`{"id":"TAG-001","cluster_id":1,"sensor":true,"timestamp":"2026-03-02T09:00:00.123456Z"}`)
	p, err := n.SensorPing("rfid-entry-01", payload)
	if err != nil {
		t.Fatalf("SensorPing: %v", err)
	}
	if p.Timestamp.Nanosecond() != 123456000 {
		t.Errorf("sub-second precision lost: %v", p.Timestamp)
	}
}

func TestSensorPing_Rejections(t *testing.T) {
	n := newNormalizer()

	cases := []struct {
		name     string
		deviceID string
		payload  string
		wantErr  error
	}{
		{"missing device", "", `{"id":"TAG-001","timestamp":"2026-03-02T09:00:00Z"}`, service.ErrMissingDevice},
		{"bad json", "dev-1", `{`, service.ErrBadPayload},
		{"missing identity", "dev-1", `{"cluster_id":1,"timestamp":"2026-03-02T09:00:00Z"}`, service.ErrMissingIdentity},
		{"blank identity", "dev-1", `{"id":"  ","timestamp":"2026-03-02T09:00:00Z"}`, service.ErrMissingIdentity},
		{"missing timestamp", "dev-1", `{"id":"TAG-001"}`, service.ErrMissingTimestamp},
		{"bad timestamp", "dev-1", `{"id":"TAG-001","timestamp":"yesterday"}`, service.ErrBadTimestamp},
		{"epoch timestamp", "dev-1", `{"id":"TAG-001","timestamp":"1756771200"}`, service.ErrBadTimestamp},
		{"bad modality", "dev-1", `{"id":"TAG-001","modality":"sonar","timestamp":"2026-03-02T09:00:00Z"}`, service.ErrBadModality},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := n.SensorPing(tc.deviceID, []byte(tc.payload))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestBeaconReport_Valid(t *testing.T) {
	n := newNormalizer()

	payload := []byte(`{"beacon_uuid":" zias-main-101-entry ","rssi":-60,"event_type":"Entry","app_version":"1.4.2","timestamp":"2026-03-02T09:00:00Z"}`)
	rep, err := n.BeaconReport("student-1", payload)
	if err != nil {
		t.Fatalf("BeaconReport: %v", err)
	}
	if rep.IdentityKey != "student-1" {
		t.Errorf("expected identity=student-1, got %q", rep.IdentityKey)
	}
	if rep.BeaconID != "zias-main-101-entry" {
		t.Errorf("expected trimmed beacon id, got %q", rep.BeaconID)
	}
	if rep.EventType != types.BeaconEventEntry {
		t.Errorf("expected lowercased event_type=entry, got %q", rep.EventType)
	}
	if rep.RSSI != -60 {
		t.Errorf("expected rssi=-60, got %d", rep.RSSI)
	}
}

func TestBeaconReport_Rejections(t *testing.T) {
	n := newNormalizer()

	if _, err := n.BeaconReport("student-1", []byte(`not json`)); !errors.Is(err, service.ErrBadPayload) {
		t.Errorf("expected ErrBadPayload, got %v", err)
	}
	if _, err := n.BeaconReport("", []byte(`{"event_type":"entry","timestamp":"2026-03-02T09:00:00Z"}`)); !errors.Is(err, service.ErrMissingIdentity) {
		t.Errorf("expected ErrMissingIdentity, got %v", err)
	}
	if _, err := n.BeaconReport("student-1", []byte(`{"event_type":"entry"}`)); !errors.Is(err, service.ErrMissingTimestamp) {
		t.Errorf("expected ErrMissingTimestamp, got %v", err)
	}
}

func TestValidateBeacon_EmptyEventTypeBecomesUnknown(t *testing.T) {
	n := newNormalizer()

	rep, err := n.ValidateBeacon("student-1", types.BeaconPayload{
		BeaconID:  "zias-main-101-entry",
		Timestamp: "2026-03-02T09:00:00Z",
	})
	if err != nil {
		t.Fatalf("ValidateBeacon: %v", err)
	}
	if rep.EventType != "unknown" {
		t.Errorf("expected event_type=unknown, got %q", rep.EventType)
	}
}
