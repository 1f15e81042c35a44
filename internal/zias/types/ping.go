package types

import "time"

// Modality identifies the sensing technology that produced a ping.
type Modality string

const (
	ModalityRFID Modality = "rfid"
	ModalityPIR  Modality = "pir"
	ModalityBLE  Modality = "ble"
)

// SensorPayload is the JSON body published by an RFID/PIR boundary device.
// The device id comes from the MQTT topic, not the body.
type SensorPayload struct {
	ID        string `json:"id"` // RFID tag or other identity token
	ClusterID int    `json:"cluster_id"`
	Sensor    bool   `json:"sensor"`
	Modality  string `json:"modality,omitempty"`
	Timestamp string `json:"timestamp"`
}

// SensorPing is a validated, canonical detection from one boundary device.
// ID is assigned by the ping store on insert. Claimed transitions
// false -> true exactly once, when a correlation pass pairs the ping;
// it never reverts.
type SensorPing struct {
	ID          int64
	DeviceID    string
	ClusterID   int
	IdentityKey string
	Modality    Modality
	Active      bool
	Timestamp   time.Time
	Claimed     bool
}
