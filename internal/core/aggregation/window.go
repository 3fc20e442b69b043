package aggregation

import (
	"fmt"
	"time"
)

// WindowSpec is a parsed and validated look-back window.
type WindowSpec struct {
	Raw  string
	Size time.Duration
}

// Start returns the inclusive lower bound of the window ending at now.
func (w WindowSpec) Start(now time.Time) time.Time {
	return now.Add(-w.Size)
}

// ParseWindowSize parses a window specifier.
// Supports Go duration syntax (e.g. "30m", "1h") plus "Xd" for days.
func ParseWindowSize(s string) (WindowSpec, error) {
	if s == "" {
		return WindowSpec{}, fmt.Errorf("window must not be empty")
	}

	// time.ParseDuration has no day unit.
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err != nil {
			return WindowSpec{}, fmt.Errorf("invalid window %q: %w", s, err)
		}
		if days <= 0 {
			return WindowSpec{}, fmt.Errorf("window must be positive, got %q", s)
		}
		return WindowSpec{Raw: s, Size: time.Duration(days) * 24 * time.Hour}, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return WindowSpec{}, fmt.Errorf("invalid window %q: %w", s, err)
	}
	if d <= 0 {
		return WindowSpec{}, fmt.Errorf("window must be positive, got %q", s)
	}
	return WindowSpec{Raw: s, Size: d}, nil
}

// BucketFor truncates a timestamp to a granularity boundary.
// Example: BucketFor(10:35:42, time.Minute) → 10:35:00
func BucketFor(t time.Time, granularity time.Duration) time.Time {
	return t.Truncate(granularity)
}
