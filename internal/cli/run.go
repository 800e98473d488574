package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/hostwatch/internal/api"
	"github.com/obsidianstack/hostwatch/internal/config"
	"github.com/obsidianstack/hostwatch/internal/logger"
	"github.com/obsidianstack/hostwatch/internal/waittime"
)

const (
	evictInterval   = time.Minute
	shutdownTimeout = 5 * time.Second
)

var errDeliveryFailed = errors.New("alert delivery failed")

type runOptions struct {
	exitOnDeliveryFailure bool
	skipTestEmail         bool
}

func newRunCommand(g *globalOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Monitor resources until interrupted",
		Long: `Send a test email to prove the SMTP settings work, then check every
configured disk plus CPU, RAM and GPU once per check_frequency. The config
file is watched and reloaded between cycles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitor(cmd.Context(), g, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.exitOnDeliveryFailure, "exit-on-delivery-failure", false,
		"stop with a non-zero exit code when an alert email cannot be delivered")
	cmd.Flags().BoolVar(&opts.skipTestEmail, "skip-test-email", false, "do not send the startup test email")
	return cmd
}

func runMonitor(ctx context.Context, g *globalOptions, opts *runOptions) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var onDeliveryError func(error)
	if opts.exitOnDeliveryFailure {
		onDeliveryError = func(err error) {
			cancel(fmt.Errorf("%w: %w", errDeliveryFailed, err))
		}
	}

	a, err := newApp(ctx, g, onDeliveryError)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	slog.Info("hostwatch: starting", logger.Scope("cli"), "device", a.deviceName())

	if !opts.skipTestEmail {
		if err := a.dispatcher.SendTestAlert(ctx); err != nil {
			return fmt.Errorf("test email: %w", err)
		}
	}

	go func() {
		if err := config.Watch(ctx, a.configPath, a.reload); err != nil {
			slog.Error("hostwatch: config watcher stopped", logger.Scope("cli"), logger.Error(err))
		}
	}()
	go a.engine.Tracker().Run(ctx, evictInterval, func() time.Duration {
		return a.holder.Load().Time.AlertCooldownTime.Duration
	})

	if addr := a.holder.Load().Metrics.ListenAddress; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           api.New(a.engine, a.engine.Tracker(), a.cooldown, a.metrics),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("hostwatch: status API listening", logger.Scope("cli"), "addr", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("hostwatch: status API stopped", logger.Scope("cli"), logger.Error(err))
			}
		}()
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			srv.Shutdown(sctx) //nolint:errcheck
		}()
	}

	for {
		healthy := a.engine.CheckAll(ctx)
		a.writeTextfile()

		freq := a.holder.Load().Time.CheckFrequency.Duration
		v, unit := waittime.FormatDuration(freq)
		next := strconv.FormatFloat(v, 'f', -1, 64) + " " + unit
		if healthy {
			slog.Info("hostwatch: system health check passed", logger.Scope("cli"), "next_check_in", next)
		} else {
			slog.Warn("hostwatch: system health check failed", logger.Scope("cli"), "next_check_in", next)
		}

		t := time.NewTimer(freq)
		select {
		case <-ctx.Done():
			t.Stop()
			if cause := context.Cause(ctx); errors.Is(cause, errDeliveryFailed) {
				slog.Error("hostwatch: stopping after failed alert delivery", logger.Scope("cli"), logger.Error(cause))
				return cause
			}
			slog.Info("hostwatch: monitoring stopped", logger.Scope("cli"))
			return nil
		case <-t.C:
		}
	}
}

func (a *app) cooldown() time.Duration {
	return a.holder.Load().Time.AlertCooldownTime.Duration
}
