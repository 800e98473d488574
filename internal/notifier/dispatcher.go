package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/obsidianstack/hostwatch/internal/config"
	"github.com/obsidianstack/hostwatch/internal/metrics"
	"github.com/obsidianstack/hostwatch/internal/waittime"
)

// MaxAttempts is the total number of transport sends per alert.
const MaxAttempts = 6

const (
	testSubjectPrefix = "System Health Monitor Test Email from "
	testBody          = "This is a test email sent by hostwatch. If you're reading this, " +
		"then the email functionality is working correctly."
)

// Message is one email ready for a Transport.
type Message struct {
	Subject string
	Body    string
}

// Transport sends a single message. It performs exactly one delivery
// attempt per call and bounds its own duration.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Options configures a Dispatcher.
type Options struct {
	// Config returns the active configuration. It is read once per message.
	Config func() *config.Config
	// Network is probed before each retry wait. Nil disables the probe.
	Network NetworkChecker
	Metrics *metrics.Metrics
	// Hostname is used in the test email subject when general.device_name
	// is empty.
	Hostname string
}

// Dispatcher sends alerts through a Transport with bounded retry.
// It is safe for concurrent use.
type Dispatcher struct {
	transport Transport
	cfg       func() *config.Config
	network   NetworkChecker
	metrics   *metrics.Metrics
	hostname  string
	sleep     func(ctx context.Context, d time.Duration) error // injectable for tests

	mu        sync.Mutex
	limiter   *rate.Limiter
	perMinute int
}

// New returns a Dispatcher sending through t.
func New(t Transport, opts Options) *Dispatcher {
	return &Dispatcher{
		transport: t,
		cfg:       opts.Config,
		network:   opts.Network,
		metrics:   opts.Metrics,
		hostname:  opts.Hostname,
		sleep:     sleepCtx,
		limiter:   newLimiter(0),
	}
}

// SendAlert delivers subject and body, retrying retryable failures up to
// MaxAttempts sends in total. Terminal failures return after one send.
//
// The returned error wraps ErrDeliveryExhausted after the last attempt, one
// of the terminal sentinels, ctx.Err() if shutdown interrupted a wait, or
// ErrRateLimited when the send rate cap rejected the message before any send.
func (d *Dispatcher) SendAlert(ctx context.Context, subject, body string) error {
	cfg := d.cfg()
	msg := Message{Subject: subject, Body: body}

	if err := d.wait(ctx, cfg.Email.SendRatePerMinute); err != nil {
		return fmt.Errorf("notifier: %w: %w", ErrRateLimited, err)
	}

	res := Retry(ctx, RetryPolicy{
		MaxAttempts: MaxAttempts,
		Delay:       func() time.Duration { return cfg.Time.EmailRetryDelay.Duration },
		Terminal:    IsTerminal,
		Sleep:       d.sleep,
		BeforeWait: func(ctx context.Context, attempt int, err error, wait time.Duration) {
			d.probeNetwork(ctx, cfg.Network)
			v, unit := waittime.FormatDuration(wait)
			slog.Error("notifier: failed to send alert email, retrying",
				"attempt", attempt,
				"max_attempts", MaxAttempts,
				"retry_in", strconv.FormatFloat(v, 'f', -1, 64)+" "+unit,
				"err", err,
			)
		},
	}, func(ctx context.Context, attempt int) error {
		err := d.transport.Send(ctx, msg)
		switch {
		case err == nil:
			d.metrics.ObserveAttempt("ok")
		case IsTerminal(err):
			d.metrics.ObserveAttempt("terminal")
		default:
			d.metrics.ObserveAttempt("retryable")
		}
		return err
	})

	switch {
	case res.OK():
		slog.Info("notifier: alert email sent", "subject", subject, "attempts", res.Attempts)
		return nil
	case res.Terminal:
		slog.Error("notifier: terminal delivery failure", "subject", subject, "attempts", res.Attempts, "err", res.Err)
		return fmt.Errorf("notifier: send %q: %w", subject, res.Err)
	case res.Aborted:
		slog.Warn("notifier: delivery aborted", "subject", subject, "attempts", res.Attempts, "err", res.LastErr)
		return fmt.Errorf("notifier: send %q aborted after %d attempts: %w", subject, res.Attempts,
			errors.Join(res.Err, res.LastErr))
	default:
		slog.Error(fmt.Sprintf("notifier: failed to send alert email after %d attempts", res.Attempts),
			"subject", subject, "err", res.Err)
		return fmt.Errorf("notifier: send %q: %w: %w", subject, ErrDeliveryExhausted, res.Err)
	}
}

// SendTestAlert sends a fixed message used at startup to prove the
// transport settings work end to end.
func (d *Dispatcher) SendTestAlert(ctx context.Context) error {
	host := d.hostname
	if name := d.cfg().General.DeviceName; name != "" {
		host = name
	}
	return d.SendAlert(ctx, testSubjectPrefix+host, testBody)
}

// wait blocks until the send rate limit admits one message. The limit is
// re-applied from config on every call; perMinute <= 0 disables it.
func (d *Dispatcher) wait(ctx context.Context, perMinute int) error {
	d.mu.Lock()
	if perMinute != d.perMinute {
		d.perMinute = perMinute
		d.limiter = newLimiter(perMinute)
	}
	lim := d.limiter
	d.mu.Unlock()
	return lim.Wait(ctx)
}

// newLimiter returns a full bucket admitting perMinute sends at once and
// refilling at perMinute per minute.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// probeNetwork logs whether the configured probe address is reachable.
func (d *Dispatcher) probeNetwork(ctx context.Context, nc config.NetworkConfig) {
	if d.network == nil || nc.ProbeAddress == "" {
		return
	}
	if err := d.network.Check(ctx, nc.ProbeAddress, nc.ProbeTimeout.Duration); err != nil {
		slog.Error("notifier: network connection unavailable", "address", nc.ProbeAddress, "err", err)
		return
	}
	slog.Debug("notifier: network reachable, failure is on the smtp side", "address", nc.ProbeAddress)
}
