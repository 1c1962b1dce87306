package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// captureStdout redirects the package's stdout indirection to a pipe and
// returns a function that restores it and yields what was captured.
func captureStdout(t *testing.T) func() string {
	t.Helper()

	r, w, err := osPipe()
	require.NoError(t, err)

	orig := osStdout
	osStdout = w

	return func() string {
		w.Close()
		osStdout = orig
		var buf bytes.Buffer
		buf.ReadFrom(r)
		r.Close()
		return buf.String()
	}
}

func TestSetupRoutesToFile(t *testing.T) {
	restore := captureStdout(t)

	var file bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, "info", nil)
	m.Logger().Info("frames cataloged")

	console := restore()
	assert.Contains(t, file.String(), "frames cataloged")
	assert.Empty(t, console, "console must stay quiet once a file is set; stdout carries batch output")
}

func TestSetupConsoleFallback(t *testing.T) {
	restore := captureStdout(t)

	m := NewSlogManager()
	m.Setup(nil, "info", nil)
	m.Logger().Info("bootstrap message")

	assert.Contains(t, restore(), "bootstrap message")
}

func TestSetupLevelFiltering(t *testing.T) {
	cases := []struct {
		level      string
		debugShown bool
	}{
		{"debug", true},
		{"info", false},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(&buf, tc.level, nil)

			m.Logger().Debug("solver detail")
			m.Logger().Info("area done")

			assert.Equal(t, tc.debugShown, bytes.Contains(buf.Bytes(), []byte("solver detail")))
			assert.Contains(t, buf.String(), "area done")
		})
	}
}

func TestSetupSwapsSink(t *testing.T) {
	var bootstrap, session bytes.Buffer
	m := NewSlogManager()

	m.Setup(&bootstrap, "info", nil)
	m.Logger().Info("before config")

	m.Setup(&session, "info", nil)
	m.Logger().Info("after config")

	assert.Contains(t, bootstrap.String(), "before config")
	assert.NotContains(t, bootstrap.String(), "after config")
	assert.Contains(t, session.String(), "after config")
}

func TestLoggerBeforeSetup(t *testing.T) {
	assert.Equal(t, slog.Default(), NewSlogManager().Logger())
}

func TestSetupExtraWriters(t *testing.T) {
	var file, gelf bytes.Buffer
	m := NewSlogManager()
	// the trailing nil stands in for a GELF dial that failed
	m.Setup(&file, "info", nil, &gelf, nil)

	m.Logger().Info("fanned out")

	assert.Contains(t, file.String(), "fanned out")
	assert.Contains(t, gelf.String(), "fanned out")
}

func TestSetupContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.ContextAttrs = func() []slog.Attr {
		return []slog.Attr{slog.String("source", "stadiums.geojson")}
	}
	m.Setup(&buf, "info", nil)

	m.Logger().Info("processing")

	assert.Contains(t, buf.String(), "source=stadiums.geojson")
}

func TestFlush(t *testing.T) {
	m := NewSlogManager()
	require.NoError(t, m.Flush(context.Background()), "flush without provider is a no-op")

	var buf bytes.Buffer
	m.Setup(&buf, "info", sdklog.NewLoggerProvider())
	assert.NoError(t, m.Flush(context.Background()))
}

func TestSetupWithOTelProvider(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", sdklog.NewLoggerProvider())

	m.Logger().Info("bridged")
	assert.Contains(t, buf.String(), "bridged")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"DEBUG": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "parseLevel(%q)", in)
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		nil, // optional sink that was never connected
		slog.NewTextHandler(&b, nil),
	)
	require.Len(t, multi.handlers, 2)

	slog.New(multi).Info("fan out")
	assert.Contains(t, a.String(), "fan out")
	assert.Contains(t, b.String(), "fan out")
}

func TestMultiHandlerEnabled(t *testing.T) {
	info := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	debug := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})
	ctx := context.Background()

	assert.False(t, NewMultiHandler().Enabled(ctx, slog.LevelInfo))
	assert.False(t, NewMultiHandler(info).Enabled(ctx, slog.LevelDebug))
	assert.True(t, NewMultiHandler(info, debug).Enabled(ctx, slog.LevelDebug))
}

func TestMultiHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(slog.NewTextHandler(&buf, nil))

	logger := slog.New(multi.WithAttrs([]slog.Attr{slog.String("tool", "pitchmark")}).WithGroup("batch"))
	logger.Info("tagged", "areas", 3)

	out := buf.String()
	assert.Contains(t, out, "tool=pitchmark")
	assert.Contains(t, out, "batch.areas=3")

	assert.Same(t, slog.Handler(multi), multi.WithGroup(""), "empty group returns the handler unchanged")
}

// failingHandler always errors from Handle.
type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("sink broke")
}

func TestMultiHandlerJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	healthy := slog.NewTextHandler(&buf, nil)
	multi := NewMultiHandler(failingHandler{}, healthy)

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "delivered anyway", 0)
	err := multi.Handle(context.Background(), rec)

	require.Error(t, err)
	assert.Contains(t, buf.String(), "delivered anyway", "healthy sink still gets the record")
}

func TestContextHandlerInjectsPerRecord(t *testing.T) {
	var buf bytes.Buffer

	batchID := 0
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.Int("batch", batchID)}
	})

	logger := slog.New(h)
	batchID = 7
	logger.Info("first")
	batchID = 8
	logger.Info("second")

	out := buf.String()
	assert.Contains(t, out, "batch=7")
	assert.Contains(t, out, "batch=8", "provider runs per record, not once at construction")
}

func TestContextHandlerNilProvider(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), nil)
	slog.New(h).Info("plain")
	assert.Contains(t, buf.String(), "plain")
}
