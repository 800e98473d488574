package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/obsidianstack/hostwatch/internal/alerts"
	"github.com/obsidianstack/hostwatch/internal/metrics"
)

// Reporter exposes the latest check reports. *alerts.Engine implements it.
type Reporter interface {
	LastReports() []alerts.Report
}

// CooldownLister exposes cooldown state. *alerts.Tracker implements it.
type CooldownLister interface {
	Entries() []alerts.Entry
}

// Handler is the HTTP handler for /api/v1/* and /metrics.
type Handler struct {
	reports   Reporter
	cooldowns CooldownLister
	cooldown  func() time.Duration
	now       func() time.Time // injectable for deterministic tests
	mux       *http.ServeMux
}

// New creates a Handler and registers all routes. cooldown returns the
// active alert cooldown and is used to compute remaining time per key.
func New(reports Reporter, cooldowns CooldownLister, cooldown func() time.Duration, m *metrics.Metrics) *Handler {
	h := &Handler{
		reports:   reports,
		cooldowns: cooldowns,
		cooldown:  cooldown,
		now:       time.Now,
		mux:       http.NewServeMux(),
	}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/alerts", h.alerts)
	h.mux.Handle("/metrics", m.Handler())

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	reports := h.reports.LastReports()
	resp := HealthResponse{State: "unknown", Reports: reports}
	if len(reports) == 0 {
		resp.Reports = []alerts.Report{}
		jsonResp(w, http.StatusOK, resp)
		return
	}

	resp.State = "healthy"
	for i := range reports {
		rep := &reports[i]
		if resp.CheckedAt == nil || rep.CheckedAt.After(*resp.CheckedAt) {
			resp.CheckedAt = &rep.CheckedAt
			resp.Device = rep.Device
		}
		if !rep.Healthy {
			resp.State = "unhealthy"
		}
		for _, res := range rep.Resources {
			if !res.Healthy {
				resp.UnhealthyCount++
			}
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

// alerts returns GET /api/v1/alerts.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	now := h.now()
	cooldown := h.cooldown()
	entries := h.cooldowns.Entries()
	out := make([]AlertEntry, 0, len(entries))
	for _, e := range entries {
		ae := AlertEntry{
			Device:   e.Key.Device,
			Resource: e.Key.Resource,
			InFlight: e.InFlight,
		}
		if !e.LastSent.IsZero() {
			last := e.LastSent
			ae.LastSent = &last
			if remaining := cooldown - now.Sub(last); remaining > 0 {
				ae.CooldownRemainingSeconds = remaining.Seconds()
			}
		}
		out = append(out, ae)
	}
	jsonResp(w, http.StatusOK, out)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
