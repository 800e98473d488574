package config

import "sync/atomic"

// Holder publishes the active Config snapshot. The watcher stores a new
// snapshot between check cycles; readers load it once per cycle.
type Holder struct {
	p atomic.Pointer[Config]
}

// NewHolder returns a Holder seeded with cfg.
func NewHolder(cfg *Config) *Holder {
	h := &Holder{}
	h.p.Store(cfg)
	return h
}

// Load returns the current snapshot. Callers must treat it as read-only.
func (h *Holder) Load() *Config {
	return h.p.Load()
}

// Store replaces the current snapshot.
func (h *Holder) Store(cfg *Config) {
	h.p.Store(cfg)
}
