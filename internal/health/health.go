// Package health serves liveness and readiness probes on the tutor's
// diagnostics listener, next to the Prometheus metrics endpoint.
//
//   - /healthz — liveness; 200 whenever the process serves HTTP.
//   - /readyz  — readiness; 200 only when every registered check passes.
//
// Responses are JSON with a top-level "status" and a per-check breakdown
// including the observed latency.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// checkTimeout bounds one readiness check.
const checkTimeout = 5 * time.Second

// CheckFunc probes one dependency. Return nil when healthy. The function
// must respect context cancellation.
type CheckFunc func(ctx context.Context) error

// Handler evaluates registered checks on each /readyz request.
type Handler struct {
	names  []string
	checks map[string]CheckFunc
}

// New returns an empty Handler. Register checks, then mount with Routes.
func New() *Handler {
	return &Handler{checks: make(map[string]CheckFunc)}
}

// Register adds a named check. Registering an existing name replaces the
// check. Not safe to call after Routes is serving traffic.
func (h *Handler) Register(name string, check CheckFunc) {
	if _, ok := h.checks[name]; !ok {
		h.names = append(h.names, name)
	}
	h.checks[name] = check
}

// Routes mounts the probe endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /readyz", h.readyz)
}

type checkResult struct {
	Status  string `json:"status"`
	Latency string `json:"latency"`
	Error   string `json:"error,omitempty"`
}

type probeResponse struct {
	Status string                 `json:"status"`
	Checks map[string]checkResult `json:"checks,omitempty"`
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, probeResponse{Status: "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	resp := probeResponse{Status: "ok", Checks: make(map[string]checkResult, len(h.names))}
	code := http.StatusOK

	for _, name := range h.names {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		start := time.Now()
		err := h.checks[name](ctx)
		cancel()

		res := checkResult{Status: "ok", Latency: time.Since(start).Round(time.Millisecond).String()}
		if err != nil {
			res.Status = "fail"
			res.Error = err.Error()
			resp.Status = "fail"
			code = http.StatusServiceUnavailable
		}
		resp.Checks[name] = res
	}

	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
