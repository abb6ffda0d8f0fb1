package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeFractional(t *testing.T) {
	got, ok := ParseTime("2024-10-10T10:10:10.250Z")
	if !ok || got.Nanosecond() != 250_000_000 {
		t.Fatalf("unexpected %v %v", got, ok)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeUnixMillis(t *testing.T) {
	ms := time.Date(2024, 10, 10, 10, 10, 10, 123e6, time.UTC).UnixMilli()
	got, ok := ParseTime(strconv.FormatInt(ms, 10))
	if !ok || got.UnixMilli() != ms {
		t.Fatalf("unexpected %v %v", got, ok)
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	if got := ParseTimeDefault("", def); !got.Equal(def) {
		t.Fatalf("expected default")
	}
	if got := ParseTimeDefault("yesterday", def); !got.Equal(def) {
		t.Fatalf("expected default for garbage")
	}
}

func TestParseRange(t *testing.T) {
	now := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	from, to := ParseRange("", "", now, time.Hour)
	if !to.Equal(now) || !from.Equal(now.Add(-time.Hour)) {
		t.Fatalf("default range %v..%v", from, to)
	}

	from, to = ParseRange("2024-10-10T13:00:00Z", "2024-10-10T11:00:00Z", now, time.Hour)
	if !from.Before(to) || from.Hour() != 11 {
		t.Fatalf("reversed range not swapped: %v..%v", from, to)
	}
}

func TestParseIntDefault(t *testing.T) {
	if ParseIntDefault("", 7) != 7 || ParseIntDefault("x", 7) != 7 || ParseIntDefault("12", 7) != 12 {
		t.Fatalf("ParseIntDefault mismatch")
	}
}
