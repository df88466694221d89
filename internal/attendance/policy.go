package attendance

import "time"

// Attendance statuses.
const (
	StatusOnTime = "on-time"
	StatusDelay  = "delay"
)

// Storage formats for the date and login-time columns.
const (
	DateFormat      = "2006-01-02"
	LoginTimeFormat = "3:04:05 PM"
)

// Policy derives an on-time/delay status from a local clock reading. The
// cutoff is inclusive: arriving exactly at it is still on-time, one second
// later is a delay.
type Policy struct {
	CutoffHour   int
	CutoffMinute int
}

// NewPolicy creates a policy; the conventional cutoff is 09:30.
func NewPolicy(cutoffHour, cutoffMinute int) Policy {
	return Policy{CutoffHour: cutoffHour, CutoffMinute: cutoffMinute}
}

// Status classifies the given local time. The comparison is second-exact:
// 09:30:00 is on-time, 09:30:01 is a delay.
func (p Policy) Status(now time.Time) string {
	elapsed := now.Hour()*3600 + now.Minute()*60 + now.Second()
	cutoff := p.CutoffHour*3600 + p.CutoffMinute*60
	if elapsed <= cutoff {
		return StatusOnTime
	}
	return StatusDelay
}
