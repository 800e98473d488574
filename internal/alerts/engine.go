package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/obsidianstack/hostwatch/internal/config"
	"github.com/obsidianstack/hostwatch/internal/metrics"
	"github.com/obsidianstack/hostwatch/internal/notifier"
	"github.com/obsidianstack/hostwatch/internal/probe"
)

// Notifier delivers one rendered alert.
type Notifier interface {
	SendAlert(ctx context.Context, subject, body string) error
}

// Probes samples host resources. *probe.System implements it.
type Probes interface {
	Disk(ctx context.Context, path string) (probe.Reading, error)
	CPU(ctx context.Context) (probe.Reading, error)
	RAM(ctx context.Context) (probe.Reading, error)
	GPU(ctx context.Context) (probe.GPUReading, error)
}

// Options configures an Engine.
type Options struct {
	// Config returns the active configuration. It is called once per check.
	Config   func() *config.Config
	Probes   Probes
	Notifier Notifier
	// Tracker defaults to a fresh NewTracker().
	Tracker *Tracker
	// GPUAvailable enables the three GPU checks. Detect it once at startup.
	GPUAvailable bool
	// Hostname names the device when general.device_name is empty.
	Hostname string
	Metrics  *metrics.Metrics
	// OnDeliveryError, when set, is called with every failed delivery.
	OnDeliveryError func(error)
}

// ResourceResult is the verdict for one resource in one check.
type ResourceResult struct {
	Kind      Kind     `json:"kind"`
	Resource  string   `json:"resource"`
	Label     string   `json:"label,omitempty"`
	Value     *float64 `json:"value,omitempty"`
	Threshold float64  `json:"threshold"`
	Healthy   bool     `json:"healthy"`
	// Alert is the alert outcome for an unhealthy resource: sent, failed or
	// suppressed. Empty when no alert was considered.
	Alert string `json:"alert,omitempty"`
	Error string `json:"error,omitempty"`
}

// Report is the result of one CheckHealth call.
type Report struct {
	Device    string           `json:"device"`
	Disk      string           `json:"disk"`
	CheckedAt time.Time        `json:"checked_at"`
	Healthy   bool             `json:"healthy"`
	Resources []ResourceResult `json:"resources"`
}

// Engine runs check cycles. It is safe for concurrent use, although one poll
// goroutine is the expected caller.
type Engine struct {
	cfg       func() *config.Config
	probes    Probes
	notifier  Notifier
	tracker   *Tracker
	templates *Templates
	gpu       bool
	hostname  string
	metrics   *metrics.Metrics
	onFailure func(error)
	now       func() time.Time // injectable for deterministic tests

	mu      sync.RWMutex
	reports map[string]Report // key: disk path
}

// NewEngine returns an Engine wired from opts.
func NewEngine(opts Options) *Engine {
	tr := opts.Tracker
	if tr == nil {
		tr = NewTracker()
	}
	return &Engine{
		cfg:       opts.Config,
		probes:    opts.Probes,
		notifier:  opts.Notifier,
		tracker:   tr,
		templates: NewTemplates(),
		gpu:       opts.GPUAvailable,
		hostname:  opts.Hostname,
		metrics:   opts.Metrics,
		onFailure: opts.OnDeliveryError,
		now:       time.Now,
		reports:   make(map[string]Report),
	}
}

// Tracker returns the cooldown tracker used by the engine.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// CheckHealth samples disk, CPU, RAM and (when available) GPU, alerts on each
// unhealthy resource and returns true only if every resource is healthy.
// Every resource is checked even after one fails.
func (e *Engine) CheckHealth(ctx context.Context, disk string) bool {
	return e.check(ctx, e.cfg(), disk).Healthy
}

// CheckAll runs CheckHealth for every configured disk against one config
// snapshot and returns the combined verdict.
func (e *Engine) CheckAll(ctx context.Context) bool {
	cfg := e.cfg()
	healthy := true
	for _, disk := range cfg.General.Disks {
		if ctx.Err() != nil {
			healthy = false
			break
		}
		if !e.check(ctx, cfg, disk).Healthy {
			healthy = false
		}
	}
	e.metrics.ObserveCycle(healthy, e.now())
	return healthy
}

// LastReports returns the most recent report for each disk, sorted by path.
func (e *Engine) LastReports() []Report {
	e.mu.RLock()
	out := make([]Report, 0, len(e.reports))
	for _, r := range e.reports {
		out = append(out, r)
	}
	e.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Disk < out[j].Disk })
	return out
}

func (e *Engine) check(ctx context.Context, cfg *config.Config, disk string) Report {
	c := cycle{
		Engine:     e,
		cfg:        cfg,
		device:     e.deviceName(cfg),
		thresholds: ThresholdsFromConfig(cfg.Thresholds),
	}
	r := Report{Device: c.device, Disk: disk, CheckedAt: e.now(), Healthy: true}
	add := func(res ResourceResult) {
		r.Resources = append(r.Resources, res)
		if !res.Healthy {
			r.Healthy = false
		}
	}

	reading, err := e.probes.Disk(ctx, disk)
	add(c.resource(ctx, KindDisk, DiskResource(disk), reading, err))

	reading, err = e.probes.CPU(ctx)
	add(c.resource(ctx, KindCPU, KindCPU.Resource(), reading, err))

	reading, err = e.probes.RAM(ctx)
	add(c.resource(ctx, KindRAM, KindRAM.Resource(), reading, err))

	if e.gpu {
		g, err := e.probes.GPU(ctx)
		for _, gr := range []struct {
			kind    Kind
			reading probe.Reading
		}{
			{KindGPUUtilization, g.Utilization},
			{KindGPUMemory, g.Memory},
			{KindGPUTemperature, g.Temperature},
		} {
			add(c.resource(ctx, gr.kind, gr.kind.Resource(), gr.reading, err))
		}
	}

	e.mu.Lock()
	e.reports[disk] = r
	e.mu.Unlock()
	return r
}

func (e *Engine) deviceName(cfg *config.Config) string {
	if cfg.General.DeviceName != "" {
		return cfg.General.DeviceName
	}
	return e.hostname
}

// DiskResource returns the resource name used for the disk at path.
func DiskResource(path string) string {
	return fmt.Sprintf("%s (%s)", KindDisk.Resource(), path)
}

// cycle carries the per-check snapshot through resource evaluation.
type cycle struct {
	*Engine
	cfg        *config.Config
	device     string
	thresholds Thresholds
}

func (c cycle) resource(ctx context.Context, kind Kind, name string, reading probe.Reading, probeErr error) ResourceResult {
	res := ResourceResult{Kind: kind, Resource: name, Label: reading.Label, Threshold: c.thresholds[kind]}
	log := slog.With("kind", kind.String(), "device", c.device, "resource", name)

	if probeErr != nil {
		res.Error = probeErr.Error()
		log.Error("alerts: resource check failed", "outcome", "probe_error", "err", probeErr)
		c.metrics.ObserveResourceError(name)
		return res
	}
	out, err := Evaluate(kind, reading, c.thresholds)
	if err != nil {
		res.Error = err.Error()
		log.Error("alerts: resource check failed", "outcome", "invalid_reading", "err", err)
		c.metrics.ObserveResourceError(name)
		return res
	}

	res.Value = probe.Float(out.Value)
	res.Healthy = out.Healthy
	c.metrics.ObserveResource(name, out.Value, out.Healthy)
	if out.Healthy {
		log.Debug("alerts: resource healthy", "value", out.Value, "threshold", out.Threshold)
		return res
	}

	log.Warn("alerts: threshold crossed",
		append([]any{
			"label", reading.Label,
			"value", out.Value,
			"unit", kind.Unit(),
			"threshold", out.Threshold,
		}, detailAttrs(reading.Detail)...)...,
	)
	res.Alert = c.alert(ctx, log, name, out.Threshold)
	return res
}

// alert gates one unhealthy resource through the tracker and, when eligible,
// delivers it. The cooldown is stamped only after delivery has finished.
func (c cycle) alert(ctx context.Context, log *slog.Logger, name string, threshold float64) string {
	key := AlertKey{Device: c.device, Resource: name}
	cooldown := c.cfg.Time.AlertCooldownTime.Duration

	if !c.tracker.TryAcquire(key, c.now(), cooldown) {
		log.Info("alerts: alert suppressed by cooldown", "outcome", metrics.OutcomeSuppressed, "cooldown", cooldown.String())
		c.metrics.ObserveAlert(name, metrics.OutcomeSuppressed)
		return metrics.OutcomeSuppressed
	}

	msg, err := c.templates.Render(c.cfg.Email.AlertSubjectTemplate, c.cfg.Email.AlertBodyTemplate, MessageData{
		Device:    c.device,
		Resource:  name,
		Threshold: threshold,
	})
	if err != nil {
		c.tracker.Release(key)
		log.Error("alerts: alert not sent", "outcome", metrics.OutcomeFailed, "err", err)
		c.metrics.ObserveAlert(name, metrics.OutcomeFailed)
		return metrics.OutcomeFailed
	}

	err = c.notifier.SendAlert(ctx, msg.Subject, msg.Body)
	switch {
	case err != nil && ctx.Err() != nil:
		// Shutdown interrupted delivery; leave the key eligible.
		c.tracker.Release(key)
		log.Warn("alerts: alert delivery cancelled", "outcome", metrics.OutcomeFailed, "err", err)
		c.metrics.ObserveAlert(name, metrics.OutcomeFailed)
		return metrics.OutcomeFailed
	case errors.Is(err, notifier.ErrRateLimited):
		// Nothing was sent; the next cycle may try again.
		c.tracker.Release(key)
		log.Warn("alerts: alert deferred by send rate limit", "outcome", metrics.OutcomeFailed, "err", err)
		c.metrics.ObserveAlert(name, metrics.OutcomeFailed)
		return metrics.OutcomeFailed
	}
	c.tracker.RecordAlertSent(key, c.now())

	if err != nil {
		outcome := "exhausted"
		if notifier.IsTerminal(err) {
			outcome = "terminal"
		}
		log.Error("alerts: alert delivery failed", "outcome", metrics.OutcomeFailed, "failure", outcome, "err", err)
		c.metrics.ObserveAlert(name, metrics.OutcomeFailed)
		if c.onFailure != nil {
			c.onFailure(err)
		}
		return metrics.OutcomeFailed
	}

	log.Info("alerts: alert sent", "outcome", metrics.OutcomeSent)
	c.metrics.ObserveAlert(name, metrics.OutcomeSent)
	return metrics.OutcomeSent
}

// detailAttrs flattens a reading's extra figures into sorted slog attrs.
func detailAttrs(detail map[string]float64) []any {
	if len(detail) == 0 {
		return nil
	}
	keys := make([]string, 0, len(detail))
	for k := range detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		attrs = append(attrs, k, detail[k])
	}
	return attrs
}
