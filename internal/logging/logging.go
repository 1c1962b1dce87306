package logging

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFilePath builds the session log file path using OS-appropriate path
// separators.
func LogFilePath(logsDir, tool string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", tool, sessionStart.Format("20060102_150405")),
	)
}

// NewRollingFile returns the rolling writer for the session log file.
// Session files are already distinct per start time; rotation guards the
// long-running case.
func NewRollingFile(logsDir, tool string, sessionStart time.Time) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   LogFilePath(logsDir, tool, sessionStart),
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
}

// NewGelfWriter connects the graylog UDP sink. The writer plugs into
// Setup as an extra writer.
func NewGelfWriter(addr string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("connecting graylog: %w", err)
	}
	return w, nil
}
