package domain

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted when reading timestamps, most specific first. Zone-less
// values were written by older producers in UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// TimestampPrecision is the finest resolution every store keeps. Postgres
// timestamptz stops at microseconds.
const TimestampPrecision = time.Microsecond

// NormalizeTimestamp converts t to UTC and drops anything finer than
// TimestampPrecision, so a value reads back exactly as it was written.
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(TimestampPrecision)
}

// NormalizeTimestampPtr is NormalizeTimestamp for optional values.
func NormalizeTimestampPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := NormalizeTimestamp(*t)
	return &n
}

// Now is the default clock of the services and stores.
func Now() time.Time {
	return NormalizeTimestamp(time.Now())
}

// FormatTimestamp renders t the way every backend persists timestamps.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp tries each known layout and fails when none match.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
