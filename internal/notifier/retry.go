package notifier

import (
	"context"
	"time"

	"github.com/obsidianstack/hostwatch/internal/waittime"
)

// RetryPolicy controls Retry.
type RetryPolicy struct {
	// MaxAttempts is the total number of calls to the operation, including
	// the first one.
	MaxAttempts int

	// Delay returns the wait between attempts. It is passed through
	// waittime.EnforceMaxDuration before every sleep.
	Delay func() time.Duration

	// Terminal reports errors that end the loop without another attempt.
	Terminal func(error) bool

	// BeforeWait, when set, runs after a retryable failure and before the
	// sleep that follows it.
	BeforeWait func(ctx context.Context, attempt int, err error, wait time.Duration)

	// Sleep defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// RetryResult describes how a Retry loop ended.
type RetryResult struct {
	Attempts int
	// Err is the last operation error, or the context error when Aborted.
	Err error
	// LastErr is the last operation error, kept when Aborted replaces Err.
	LastErr   error
	Terminal  bool
	Exhausted bool
	Aborted   bool
}

// OK reports whether the operation eventually succeeded.
func (r RetryResult) OK() bool {
	return r.Err == nil
}

// Retry calls op until it succeeds, returns a terminal error, or
// p.MaxAttempts calls have been made. There is no wait after the last
// attempt. A cancelled ctx interrupts a pending wait.
func Retry(ctx context.Context, p RetryPolicy, op func(ctx context.Context, attempt int) error) RetryResult {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	limit := p.MaxAttempts
	if limit < 1 {
		limit = 1
	}

	var res RetryResult
	for attempt := 1; attempt <= limit; attempt++ {
		res.Attempts = attempt
		err := op(ctx, attempt)
		if err == nil {
			res.Err, res.LastErr = nil, nil
			return res
		}
		res.Err, res.LastErr = err, err

		if p.Terminal != nil && p.Terminal(err) {
			res.Terminal = true
			return res
		}
		if attempt == limit {
			break
		}

		var wait time.Duration
		if p.Delay != nil {
			wait = waittime.EnforceMaxDuration(p.Delay())
		}
		if p.BeforeWait != nil {
			p.BeforeWait(ctx, attempt, err, wait)
		}
		if serr := sleep(ctx, wait); serr != nil {
			res.Err = serr
			res.Aborted = true
			return res
		}
	}
	res.Exhausted = true
	return res
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
