// Package api exposes a sensor and its record store over HTTP JSON for
// door controllers and dashboards that cannot sit on the serial bus
// themselves.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/touchstone/internal/monitoring"
	"github.com/banshee-data/touchstone/internal/store"
	"github.com/banshee-data/touchstone/zfm"
)

// defaultScanTimeout bounds the wait for a finger on /identify and /enroll
// unless the request overrides it.
const defaultScanTimeout = 10 * time.Second

type Server struct {
	sensor *zfm.Sensor
	store  *store.Store
}

func NewServer(sensor *zfm.Sensor, store *store.Store) *Server {
	return &Server{sensor: sensor, store: store}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/params", s.handleParams)
	mux.HandleFunc("/records", s.handleRecords)
	mux.HandleFunc("/scans", s.handleScans)
	mux.HandleFunc("/identify", s.handleIdentify)
	mux.HandleFunc("/enroll", s.handleEnroll)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", s.handleHome)
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("api: encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("touchstone fingerprint server\n"))
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	params, err := s.sensor.SystemParameters()
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	count, err := s.sensor.TemplateCount()
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	monitoring.TemplatesStored.Set(float64(count))

	packetSize, _ := params.PacketSize()
	writeJSON(w, http.StatusOK, map[string]any{
		"storage_capacity": params.StorageCapacity,
		"security_level":   params.SecurityLevel,
		"device_address":   params.DeviceAddress,
		"packet_size":      packetSize,
		"baud_rate":        params.BaudRate(),
		"template_count":   count,
	})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	records, err := s.store.Records(r.URL.Query().Get("batch"))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Strip raw characteristics from the listing; hashes identify records.
	type listed struct {
		Position uint16 `json:"position"`
		SHA256   string `json:"sha256"`
		Size     int    `json:"size"`
	}
	out := make([]listed, 0, len(records))
	for _, rec := range records {
		out = append(out, listed{Position: rec.Position, SHA256: rec.SHA256, Size: len(rec.Characteristics)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	events, err := s.store.Scans(limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// scanTimeout reads the timeout query parameter, falling back to the
// default. Values are capped at two minutes to keep the serial bus from
// being parked on one request.
func scanTimeout(r *http.Request) time.Duration {
	d := defaultScanTimeout
	if v := r.URL.Query().Get("timeout"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			d = parsed
		}
	}
	if d > 2*time.Minute {
		d = 2 * time.Minute
	}
	return d
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	minAccuracy := 0
	if v := r.URL.Query().Get("min_accuracy"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid min_accuracy")
			return
		}
		minAccuracy = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), scanTimeout(r))
	defer cancel()

	result, err := s.sensor.Scan(ctx, minAccuracy)
	if err != nil {
		monitoring.ScansTotal.WithLabelValues("error").Inc()
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	if result.Found {
		monitoring.ScansTotal.WithLabelValues("match").Inc()
		monitoring.MatchAccuracy.Observe(float64(result.Accuracy))
	} else {
		monitoring.ScansTotal.WithLabelValues("no_match").Inc()
	}
	if err := s.store.LogScan(result); err != nil {
		monitoring.Logf("api: log scan: %v", err)
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), scanTimeout(r))
	defer cancel()

	position, err := s.sensor.Enroll(ctx)
	if err != nil {
		monitoring.EnrollmentsTotal.WithLabelValues("error").Inc()
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	monitoring.EnrollmentsTotal.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusOK, map[string]int{"position": position})
}
