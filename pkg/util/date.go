package util

import (
	"strconv"
	"time"
)

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
// 1e11 seconds is year 5138; 1e11 milliseconds is March 1973.
const epochMillisThreshold = 1e11

// FromEpoch converts an epoch in seconds or milliseconds to a time.
func FromEpoch(n int64) time.Time {
	if n > epochMillisThreshold || n < -epochMillisThreshold {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}

// ParseTime tries RFC3339Nano and epoch seconds or milliseconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return FromEpoch(ts), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParseRange resolves an optional from/to pair. A missing to is now and a
// missing from is span before to. The result is swapped when reversed.
func ParseRange(from, to string, now time.Time, span time.Duration) (time.Time, time.Time) {
	t := ParseTimeDefault(to, now)
	f := ParseTimeDefault(from, t.Add(-span))
	if f.After(t) {
		f, t = t, f
	}
	return f, t
}
