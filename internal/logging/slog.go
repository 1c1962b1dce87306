package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Indirections for stdout so tests can capture console output.
var (
	osStdout io.Writer = os.Stdout
	osPipe             = os.Pipe
)

// SlogManager owns the structured logger for one process. Setup may run
// twice: once for the console bootstrap phase and again when the config
// names the session log file.
type SlogManager struct {
	logger      *slog.Logger
	logProvider *sdklog.LoggerProvider

	// ContextAttrs, when set before Setup, supplies dynamic attributes
	// (current batch source, worker count) attached to every record.
	ContextAttrs ContextProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// rfc3339Times rewrites record timestamps to UTC RFC3339 so file, GELF and
// console output agree on the format.
func rfc3339Times(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
		}
	}
	return a
}

// Setup initializes the logging system. When file is non-nil all records go
// to it and the console stays quiet, so batch output piped through stdout
// is not interleaved with logs; the console handler is the fallback for the
// pre-config bootstrap phase. Extra writers (a GELF connection, a capture
// buffer) each get their own text handler in the fan-out. If provider is
// nil, OTel logging is disabled.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider, extra ...io.Writer) {
	m.logProvider = provider

	opts := &slog.HandlerOptions{
		Level:       parseLevel(level),
		ReplaceAttr: rfc3339Times,
	}

	sink := file
	if sink == nil {
		sink = osStdout
	}
	handlers := []slog.Handler{slog.NewTextHandler(sink, opts)}
	for _, w := range extra {
		if w != nil {
			handlers = append(handlers, slog.NewTextHandler(w, opts))
		}
	}
	if provider != nil {
		handlers = append(handlers, otelslog.NewHandler("pitchmark", otelslog.WithLoggerProvider(provider)))
	}

	var handler slog.Handler = NewMultiHandler(handlers...)
	if m.ContextAttrs != nil {
		handler = NewContextHandler(handler, m.ContextAttrs)
	}

	m.logger = slog.New(handler)
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces export of pending OTel records.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
