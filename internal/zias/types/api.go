package types

// OccupancyResponse answers "who is in this room right now".
type OccupancyResponse struct {
	Room       string   `json:"room"`
	Count      int      `json:"count"`
	Identities []string `json:"identities"`
}

// PresenceResponse is the current presence of a single identity.
type PresenceResponse struct {
	IdentityKey string `json:"identity_key"`
	Direction   string `json:"direction"`
	Room        string `json:"room"`
	LastSeen    string `json:"last_seen"`
}

// BeaconReportResponse acknowledges a direct beacon report.
type BeaconReportResponse struct {
	OK         bool   `json:"ok"`
	Recorded   bool   `json:"recorded"` // false when debounced or informational
	EventID    string `json:"event_id,omitempty"`
	ServerTime string `json:"server_time"`
}

// HealthResponse reports liveness of the server's collaborators.
type HealthResponse struct {
	Status string `json:"status"`
	DB     bool   `json:"db"`
	MQTT   bool   `json:"mqtt"`
}
