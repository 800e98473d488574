package alerts

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// AlertKey identifies one alert stream.
type AlertKey struct {
	Device   string `json:"device"`
	Resource string `json:"resource"`
}

func (k AlertKey) String() string {
	return k.Device + ":" + k.Resource
}

// Entry is the exported view of one tracked key.
type Entry struct {
	Key      AlertKey  `json:"key"`
	LastSent time.Time `json:"last_sent,omitzero"`
	InFlight bool      `json:"in_flight"`
}

type cooldownEntry struct {
	last     time.Time
	inFlight bool
}

// Tracker remembers when each AlertKey last alerted.
// A key with no entry is treated as never alerted.
//
// Tracker is safe for concurrent use. TryAcquire performs the eligibility
// check and the in-flight mark under one lock, so two concurrent triggers for
// the same key cannot both proceed.
type Tracker struct {
	mu   sync.Mutex
	data map[AlertKey]*cooldownEntry
	now  func() time.Time // injectable for deterministic tests

	// retain only grows; Run never evicts younger entries.
	retain time.Duration
}

// MinRetention is the shortest age at which Run evicts an entry, whatever
// the configured cooldown.
const MinRetention = 24 * time.Hour

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		data: make(map[AlertKey]*cooldownEntry),
		now:  time.Now,
	}
}

// ShouldAlert reports whether key may alert at now. It is true when key has
// never alerted, or when strictly more than cooldown has passed since the
// last recorded send and no delivery for key is in flight.
func (t *Tracker) ShouldAlert(key AlertKey, now time.Time, cooldown time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.eligible(key, now, cooldown)
}

func (t *Tracker) eligible(key AlertKey, now time.Time, cooldown time.Duration) bool {
	e, ok := t.data[key]
	if !ok {
		return true
	}
	if e.inFlight {
		return false
	}
	if e.last.IsZero() {
		return true
	}
	return now.Sub(e.last) > cooldown
}

// TryAcquire marks key in flight and returns true if it is eligible at now.
// A successful TryAcquire must be followed by RecordAlertSent or Release.
func (t *Tracker) TryAcquire(key AlertKey, now time.Time, cooldown time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.eligible(key, now, cooldown) {
		return false
	}
	e, ok := t.data[key]
	if !ok {
		e = &cooldownEntry{}
		t.data[key] = e
	}
	e.inFlight = true
	return true
}

// RecordAlertSent stamps key with now and clears its in-flight mark.
// Call it once delivery has finished, whether it succeeded or not.
func (t *Tracker) RecordAlertSent(key AlertKey, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.data[key]
	if !ok {
		e = &cooldownEntry{}
		t.data[key] = e
	}
	e.last = now
	e.inFlight = false
}

// Release clears the in-flight mark without recording a send.
func (t *Tracker) Release(key AlertKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.data[key]
	if !ok {
		return
	}
	if e.last.IsZero() {
		delete(t.data, key)
		return
	}
	e.inFlight = false
}

// Entries returns every tracked key, sorted by device then resource.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	out := make([]Entry, 0, len(t.data))
	for k, e := range t.data {
		out = append(out, Entry{Key: k, LastSent: e.last, InFlight: e.inFlight})
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Device != out[j].Key.Device {
			return out[i].Key.Device < out[j].Key.Device
		}
		return out[i].Key.Resource < out[j].Key.Resource
	})
	return out
}

// Evict drops keys whose last send is more than maxAge before now. Such keys
// are already eligible, so dropping them does not change any decision made
// with a cooldown <= maxAge. In-flight keys are kept.
func (t *Tracker) Evict(now time.Time, maxAge time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for k, e := range t.data {
		if e.inFlight {
			continue
		}
		if now.Sub(e.last) > maxAge {
			delete(t.data, k)
			removed++
		}
	}
	return removed
}

// Run evicts expired keys every interval until ctx is cancelled. cooldown
// is consulted on every tick. Entries are kept for the longest cooldown seen
// so far, and at least MinRetention.
func (t *Tracker) Run(ctx context.Context, interval time.Duration, cooldown func() time.Duration) {
	if interval < time.Second {
		interval = time.Second
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if n := t.sweep(t.now(), cooldown()); n > 0 {
				slog.Debug("alerts: evicted expired cooldown entries", "count", n)
			}
		}
	}
}

// sweep widens the retention to cooldown if larger and evicts with it.
func (t *Tracker) sweep(now time.Time, cooldown time.Duration) int {
	t.mu.Lock()
	t.retain = max(t.retain, cooldown, MinRetention)
	retain := t.retain
	t.mu.Unlock()
	return t.Evict(now, retain)
}
