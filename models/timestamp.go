package models

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the only layout written to the store: local wall clock,
// no offset, fixed microsecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// readLayout also matches values without a fractional part; time.Parse accepts
// a fraction after the seconds field even when the layout has none.
const readLayout = "2006-01-02T15:04:05"

// FormatTimestamp renders t in local time using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.In(time.Local).Format(TimestampLayout)
}

// ParseTimestamp reads a stored timestamp back as a local time.
// Values carrying an explicit offset are accepted and converted to local time;
// anything else is rejected instead of being guessed.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.ParseInLocation(readLayout, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(time.Local), nil
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
}
