package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/obsidianstack/hostwatch/internal/alerts"
	"github.com/obsidianstack/hostwatch/internal/config"
	"github.com/obsidianstack/hostwatch/internal/logger"
	"github.com/obsidianstack/hostwatch/internal/metrics"
	"github.com/obsidianstack/hostwatch/internal/notifier"
	"github.com/obsidianstack/hostwatch/internal/probe"
)

// app is the wired process: config, logging, probes, dispatcher and engine.
type app struct {
	configPath string
	holder     *config.Holder
	log        *logger.Logger
	gpu        probe.GPU
	metrics    *metrics.Metrics
	dispatcher *notifier.Dispatcher
	engine     *alerts.Engine
	probes     alerts.Probes
	hostname   string
}

// newApp loads configuration and builds every component. onDeliveryError
// may be nil.
func newApp(ctx context.Context, opts *globalOptions, onDeliveryError func(error)) (*app, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	lg, err := logger.New(cfg.General.LogLevel, cfg.General.LogFile)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(lg.Logger)

	a := &app{
		configPath: opts.configPath,
		holder:     config.NewHolder(cfg),
		log:        lg,
		metrics:    metrics.New(),
	}

	// GPU presence is decided once; a missing driver disables GPU checks.
	var gpu probe.GPU
	if g := probe.NewGPU(); g.Present(ctx) {
		gpu = g
		a.gpu = g
	}
	system := probe.NewSystem(gpu)
	a.probes = system
	a.hostname = system.Hostname(ctx)

	a.dispatcher = notifier.New(notifier.NewSMTP(a.holder.Load), notifier.Options{
		Config:   a.holder.Load,
		Network:  notifier.NewNetworkProbe(),
		Metrics:  a.metrics,
		Hostname: a.hostname,
	})
	a.engine = a.newEngine(a.dispatcher, onDeliveryError)

	slog.Info("hostwatch: configured",
		logger.Scope("cli"),
		"config", opts.configPath,
		"device", a.deviceName(),
		"disks", cfg.General.Disks,
		"gpu", gpu != nil,
		"check_frequency", cfg.Time.CheckFrequency.String(),
		"alert_cooldown", cfg.Time.AlertCooldownTime.String(),
	)
	return a, nil
}

func (a *app) newEngine(n alerts.Notifier, onDeliveryError func(error)) *alerts.Engine {
	return alerts.NewEngine(alerts.Options{
		Config:          a.holder.Load,
		Probes:          a.probes,
		Notifier:        n,
		GPUAvailable:    a.gpu != nil,
		Hostname:        a.hostname,
		Metrics:         a.metrics,
		OnDeliveryError: onDeliveryError,
	})
}

// engineWithoutEmail returns an engine whose alerts are logged, not mailed.
func (a *app) engineWithoutEmail() *alerts.Engine {
	return a.newEngine(dryRunNotifier{}, nil)
}

type dryRunNotifier struct{}

func (dryRunNotifier) SendAlert(_ context.Context, subject, _ string) error {
	slog.Info("hostwatch: dry run, alert email not sent", logger.Scope("cli"), "subject", subject)
	return nil
}

func (a *app) deviceName() string {
	if name := a.holder.Load().General.DeviceName; name != "" {
		return name
	}
	return a.hostname
}

// reload installs a new config snapshot and re-applies the log level.
func (a *app) reload(cfg *config.Config) {
	a.holder.Store(cfg)
	if err := a.log.SetLevel(cfg.General.LogLevel); err != nil {
		slog.Warn("hostwatch: keeping previous log level", logger.Scope("cli"), logger.Error(err))
	}
	slog.Info("hostwatch: config hot-reloaded", logger.Scope("cli"), "disks", cfg.General.Disks)
}

// writeTextfile refreshes the node_exporter textfile when one is configured.
func (a *app) writeTextfile() {
	if err := a.metrics.WriteTextfile(a.holder.Load().Metrics.TextfilePath); err != nil {
		slog.Error("hostwatch: metrics textfile not written", logger.Scope("cli"), logger.Error(err))
	}
}

func (a *app) Close() error {
	var errs []error
	if a.gpu != nil {
		errs = append(errs, a.gpu.Close())
	}
	errs = append(errs, a.log.Close())
	return errors.Join(errs...)
}
