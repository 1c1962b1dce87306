package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	at := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	got := LogFilePath("logs", "pitchmark", at)
	assert.Equal(t, filepath.Join("logs", "pitchmark.20260212_213836.log"), got)

	abs := LogFilePath(filepath.Join("/var", "log", "pitchmark"), "pitchmark", at)
	assert.Equal(t,
		filepath.Join("/var", "log", "pitchmark", "pitchmark.20260212_213836.log"), abs)

	// the session start is baked into the name, so two runs never collide
	later := LogFilePath("logs", "pitchmark", at.Add(time.Second))
	assert.NotEqual(t, got, later)
}

func TestNewRollingFile(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)
	dir := t.TempDir()

	lj := NewRollingFile(dir, "pitchmark", sessionStart)
	require.NotNil(t, lj)
	assert.Equal(t, filepath.Join(dir, "pitchmark.20260212_213836.log"), lj.Filename)

	_, err := lj.Write([]byte("rolling\n"))
	require.NoError(t, err)
	require.NoError(t, lj.Close())

	data, err := os.ReadFile(lj.Filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rolling")
}

func TestNewGelfWriter(t *testing.T) {
	// UDP is connectionless, no listener needed.
	w, err := NewGelfWriter("127.0.0.1:12201")
	require.NoError(t, err)
	assert.NotNil(t, w)
}

func TestNewGelfWriterBadAddress(t *testing.T) {
	_, err := NewGelfWriter("not a:valid:addr")
	assert.Error(t, err)
}
