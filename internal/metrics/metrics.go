package metrics

import "github.com/prometheus/client_golang/prometheus"

// RecognitionAttempts counts recognition attempts by answering source
// (backend or simulator) and outcome (recognized or miss).
var RecognitionAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "facetrack_recognition_attempts_total",
		Help: "Recognition attempts by source and outcome.",
	},
	[]string{"source", "outcome"},
)

// AttendanceRecords counts attendance rows written, by role and status.
var AttendanceRecords = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "facetrack_attendance_records_total",
		Help: "Attendance records written by role and status.",
	},
	[]string{"role", "status"},
)

func init() {
	prometheus.MustRegister(RecognitionAttempts, AttendanceRecords)
}
