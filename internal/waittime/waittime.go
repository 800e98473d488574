// Package waittime converts raw delays into human-readable magnitudes and caps
// requested retry delays.
package waittime

import (
	"log/slog"
	"time"
)

const (
	secondsInMinute = 60
	secondsInHour   = 3600

	// MaxSeconds is the ceiling for any requested wait (12 hours).
	MaxSeconds = 43200

	// FallbackSeconds replaces a request above MaxSeconds (1 hour).
	FallbackSeconds = secondsInHour
)

// Format returns the wait as a magnitude and unit: seconds below one minute,
// minutes below one hour, hours otherwise.
func Format(seconds int64) (float64, string) {
	switch {
	case seconds < secondsInMinute:
		return float64(seconds), "seconds"
	case seconds < secondsInHour:
		return float64(seconds) / secondsInMinute, "minutes"
	default:
		return float64(seconds) / secondsInHour, "hours"
	}
}

// FormatDuration is Format for a time.Duration, truncated to whole seconds.
func FormatDuration(d time.Duration) (float64, string) {
	return Format(int64(d / time.Second))
}

// EnforceMax returns seconds unchanged unless it exceeds MaxSeconds, in which
// case FallbackSeconds is returned instead of the ceiling.
func EnforceMax(seconds int64) int64 {
	if seconds > MaxSeconds {
		slog.Warn("waittime: wait exceeded limit of 12 hours, using default of 1 hour",
			"requested_seconds", seconds)
		return FallbackSeconds
	}
	return seconds
}

// EnforceMaxDuration is EnforceMax for a time.Duration. Sub-second precision
// is kept when the request is within the limit.
func EnforceMaxDuration(d time.Duration) time.Duration {
	if d > MaxSeconds*time.Second {
		slog.Warn("waittime: wait exceeded limit of 12 hours, using default of 1 hour",
			"requested", d.String())
		return FallbackSeconds * time.Second
	}
	return d
}
