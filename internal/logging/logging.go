package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

const sessionStampLayout = "20060102_150405"

// SessionStamp formats a run start time for file names shared by the log,
// database fallback and dump files of one run.
func SessionStamp(start time.Time) string {
	return start.Format(sessionStampLayout)
}

// LogFilePath returns the log file for a run, e.g. logs/earthview.20260212_213836.log.
func LogFilePath(logsDir, serviceName string, start time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s.%s.log", serviceName, SessionStamp(start)))
}
