package config

import (
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes from either a Go duration string
// ("90s", "5m") or a bare integer number of seconds.
type Duration struct {
	time.Duration
}

// maxWholeSeconds is the largest second count a time.Duration can hold.
const maxWholeSeconds = math.MaxInt64 / int64(time.Second)

// Seconds returns a Duration of n seconds. Counts beyond what a
// time.Duration can represent saturate instead of wrapping.
func Seconds(n int64) Duration {
	switch {
	case n > maxWholeSeconds:
		return Duration{time.Duration(math.MaxInt64)}
	case n < -maxWholeSeconds:
		return Duration{time.Duration(math.MinInt64)}
	}
	return Duration{time.Duration(n) * time.Second}
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var secs int64
	if err := value.Decode(&secs); err == nil {
		*d = Seconds(secs)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
