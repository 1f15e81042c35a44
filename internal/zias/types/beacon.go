package types

import "time"

// Beacon event types as declared by the mobile client.
const (
	BeaconEventEntry       = "entry"
	BeaconEventExit        = "exit"
	BeaconEventApproaching = "approaching"
)

// BeaconLocation is the GPS fix reported alongside a beacon sighting.
type BeaconLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BeaconPayload is the JSON body published by the mobile app on its
// beacon topic. The student identity comes from the MQTT topic.
type BeaconPayload struct {
	BeaconID   string          `json:"beacon_uuid"`
	RSSI       int             `json:"rssi"`
	Location   *BeaconLocation `json:"location,omitempty"`
	EventType  string          `json:"event_type"`
	AppVersion string          `json:"app_version,omitempty"`
	Timestamp  string          `json:"timestamp"`
}

// BeaconReportRequest is the HTTP variant of BeaconPayload, used when the
// mobile app posts directly to the API instead of publishing over MQTT.
type BeaconReportRequest struct {
	IdentityKey string `json:"identity_key"`
	BeaconPayload
}

// BeaconReport is a validated self-declared sighting from a mobile client.
type BeaconReport struct {
	IdentityKey string
	BeaconID    string
	RSSI        int
	Location    *BeaconLocation
	EventType   string
	AppVersion  string
	Timestamp   time.Time
}
