package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zias-project/zias/server/internal/zias/service"
	"github.com/zias-project/zias/server/internal/zias/store"
	"github.com/zias-project/zias/server/internal/zias/types"
)

type Dependencies struct {
	Logger     *log.Logger
	Addr       string
	Presence   *service.PresenceManager
	Events     store.EventStore
	Normalizer *service.Normalizer
	BLE        *service.BLEService

	// Health probes; nil probes report healthy.
	DBHealthy   func(ctx context.Context) bool
	MQTTHealthy func() bool
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	presence   *service.PresenceManager
	events     store.EventStore
	normalizer *service.Normalizer
	ble        *service.BLEService
	dbHealthy  func(ctx context.Context) bool
	mqHealthy  func() bool
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:     d.Logger,
		mux:        mux,
		presence:   d.Presence,
		events:     d.Events,
		normalizer: d.Normalizer,
		ble:        d.BLE,
		dbHealthy:  d.DBHealthy,
		mqHealthy:  d.MQTTHealthy,
	}

	mux.HandleFunc("GET /v1/occupancy/{room}", s.handleOccupancy)
	mux.HandleFunc("GET /v1/presence/{identity}", s.handlePresence)
	mux.HandleFunc("GET /v1/attendance/records", s.handleRecords)
	mux.HandleFunc("POST /v1/beacon_report", s.handleBeaconReport)
	mux.HandleFunc("GET /v1/healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleOccupancy(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")
	if room == "" {
		writeError(w, http.StatusBadRequest, "invalid_room", "room is required")
		return
	}

	resp, err := s.presence.Occupancy(r.Context(), room)
	if err != nil {
		s.logger.Printf("occupancy error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")
	if identity == "" {
		writeError(w, http.StatusBadRequest, "invalid_identity", "identity is required")
		return
	}

	resp, ok, err := s.presence.Presence(r.Context(), identity)
	if err != nil {
		s.logger.Printf("presence error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_present", "no unexpired presence for identity")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	q := store.EventQuery{
		IdentityKey: r.URL.Query().Get("identity"),
		Room:        r.URL.Query().Get("room"),
	}

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be RFC3339")
			return
		}
		q.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be RFC3339")
			return
		}
		q.To = t
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be 1..1000")
			return
		}
		q.Limit = n
	}

	events, err := s.events.List(r.Context(), q)
	if err != nil {
		s.logger.Printf("records error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	if events == nil {
		events = []types.AttendanceEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleBeaconReport(w http.ResponseWriter, r *http.Request) {
	var req types.BeaconReportRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	rep, err := s.normalizer.ValidateBeacon(req.IdentityKey, req.BeaconPayload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingIdentity):
			writeError(w, http.StatusBadRequest, "invalid_identity", err.Error())
		case errors.Is(err, service.ErrMissingTimestamp), errors.Is(err, service.ErrBadTimestamp):
			writeError(w, http.StatusBadRequest, "invalid_timestamp", err.Error())
		default:
			writeError(w, http.StatusBadRequest, "invalid_payload", err.Error())
		}
		return
	}

	outcome, eventID, err := s.ble.Process(r.Context(), rep)
	if err != nil {
		s.logger.Printf("beacon_report error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	status := http.StatusOK
	if outcome == service.OutcomeMatched {
		status = http.StatusCreated
	}
	writeJSON(w, status, types.BeaconReportResponse{
		OK:         true,
		Recorded:   outcome == service.OutcomeMatched,
		EventID:    eventID,
		ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := types.HealthResponse{Status: "ok", DB: true, MQTT: true}
	if s.dbHealthy != nil {
		resp.DB = s.dbHealthy(r.Context())
	}
	if s.mqHealthy != nil {
		resp.MQTT = s.mqHealthy()
	}

	status := http.StatusOK
	if !resp.DB {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	} else if !resp.MQTT {
		resp.Status = "degraded"
	}
	writeJSON(w, status, resp)
}
