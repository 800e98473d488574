package api

import (
	"time"

	"github.com/obsidianstack/hostwatch/internal/alerts"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// State is "healthy", "unhealthy", or "unknown" before the first check.
	State          string          `json:"state"`
	Device         string          `json:"device,omitempty"`
	CheckedAt      *time.Time      `json:"checked_at,omitempty"`
	UnhealthyCount int             `json:"unhealthy_count"`
	Reports        []alerts.Report `json:"reports"`
}

// AlertEntry is one cooldown key in GET /api/v1/alerts.
type AlertEntry struct {
	Device   string     `json:"device"`
	Resource string     `json:"resource"`
	LastSent *time.Time `json:"last_sent,omitempty"`
	InFlight bool       `json:"in_flight"`
	// CooldownRemainingSeconds is 0 when the key may alert again.
	CooldownRemainingSeconds float64 `json:"cooldown_remaining_seconds"`
}

type errorResponse struct {
	Error string `json:"error"`
}
