// Package rest serves the operational HTTP endpoints of the watch mode:
// liveness, readiness and a detailed health report.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// Pinger checks one dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CycleStatus describes the last finished import cycle.
type CycleStatus struct {
	FinishedAt  time.Time `json:"finishedAt"`
	Conferences int       `json:"conferences"`
	Failed      int       `json:"failed"`
}

type cycleReporter interface {
	LastCycle() (CycleStatus, bool)
}

// HealthHandler serves /live, /ready and /health.
type HealthHandler struct {
	deps    map[string]Pinger
	cycles  cycleReporter
	version string
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler. deps maps a component name to
// its check; cycles may be nil.
func NewHealthHandler(deps map[string]Pinger, cycles cycleReporter, version string) *HealthHandler {
	return &HealthHandler{deps: deps, cycles: cycles, version: version, timeout: 3 * time.Second}
}

// HealthResponse is the body of every probe.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentStatus `json:"components,omitempty"`
	LastImport *CycleStatus               `json:"lastImport,omitempty"`
	Timestamp  time.Time                  `json:"timestamp"`
}

// ComponentStatus is the result of one dependency check.
type ComponentStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Live always answers 200.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

// Ready answers 200 when every dependency responds, 503 otherwise.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	_, ok := h.check(r.Context())
	status, code := "ok", http.StatusOK
	if !ok {
		status, code = "down", http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{Status: status, Timestamp: time.Now().UTC()})
}

// Health reports every dependency with its latency, the version and the
// last import cycle.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	components, ok := h.check(r.Context())
	resp := HealthResponse{
		Status:     "ok",
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now().UTC(),
	}
	code := http.StatusOK
	if !ok {
		resp.Status = "down"
		code = http.StatusServiceUnavailable
	}
	if h.cycles != nil {
		if c, ran := h.cycles.LastCycle(); ran {
			resp.LastImport = &c
		}
	}
	writeJSON(w, code, resp)
}

func (h *HealthHandler) check(ctx context.Context) (map[string]ComponentStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]ComponentStatus, len(names))
	ok := true
	for _, name := range names {
		start := time.Now()
		if err := h.deps[name].Ping(ctx); err != nil {
			out[name] = ComponentStatus{Status: "down", Error: err.Error()}
			ok = false
			continue
		}
		out[name] = ComponentStatus{Status: "ok", Latency: time.Since(start).String()}
	}
	return out, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
