package domain

import (
	"testing"
	"time"
)

func TestParseTimestamp_Layouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-01T10:20:30.123456Z", time.Date(2024, 5, 1, 10, 20, 30, 123456000, time.UTC)},
		{"2024-05-01T12:20:30+02:00", time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC)},
		{"2024-05-01T10:20:30.5", time.Date(2024, 5, 1, 10, 20, 30, 500000000, time.UTC)},
		{"2024-05-01T10:20:30", time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC)},
		{"2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"  2024-05-01  ", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) || got.Location() != time.UTC {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTimestamp_Rejects(t *testing.T) {
	for _, in := range []string{"", "yesterday", "2024/05/01", "01-05-2024"} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Errorf("ParseTimestamp(%q) should fail", in)
		}
	}
}

func TestFormatTimestamp_RoundTrip(t *testing.T) {
	local := time.Date(2024, 5, 1, 12, 0, 0, 42, time.FixedZone("CEST", 2*3600))
	s := FormatTimestamp(local)
	if s != "2024-05-01T10:00:00.000000042Z" {
		t.Errorf("unexpected format %q", s)
	}
	back, err := ParseTimestamp(s)
	if err != nil || !back.Equal(local) {
		t.Errorf("round trip failed: %v %v", back, err)
	}
}
