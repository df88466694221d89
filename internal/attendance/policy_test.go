package attendance

import (
	"testing"
	"time"
)

func TestPolicyStatusBoundaries(t *testing.T) {
	policy := NewPolicy(9, 30)

	cases := []struct {
		clock string
		want  string
	}{
		{"08:59:59", StatusOnTime},
		{"09:00:00", StatusOnTime},
		{"09:29:59", StatusOnTime},
		{"09:30:00", StatusOnTime},
		{"09:30:01", StatusDelay},
		{"09:31:00", StatusDelay},
		{"16:45:00", StatusDelay},
		{"00:00:00", StatusOnTime},
	}
	for _, tc := range cases {
		now, err := time.Parse("2006-01-02 15:04:05", "2025-03-10 "+tc.clock)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.clock, err)
		}
		if got := policy.Status(now); got != tc.want {
			t.Errorf("Status(%s) = %s, want %s", tc.clock, got, tc.want)
		}
	}
}

func TestPolicyCustomCutoff(t *testing.T) {
	policy := NewPolicy(8, 0)

	at := func(clock string) time.Time {
		now, _ := time.Parse("15:04:05", clock)
		return now
	}
	if got := policy.Status(at("08:00:00")); got != StatusOnTime {
		t.Errorf("Status(08:00:00) = %s, want %s", got, StatusOnTime)
	}
	if got := policy.Status(at("08:00:01")); got != StatusDelay {
		t.Errorf("Status(08:00:01) = %s, want %s", got, StatusDelay)
	}
}
