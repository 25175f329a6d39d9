package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fadedpez/scrapstats/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, WARN)

	logger.Info("hidden %d", 1)
	logger.Warn("shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "logger_test.go")
}

func TestLogger_Named(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, DEBUG).Named("file")

	logger.Debug("flushed")

	assert.Contains(t, buf.String(), "[file] flushed")
}

func TestLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, INFO)

	logger.LogError(types.WrapError(types.ErrPersistenceConnect, "flush failed", errors.New("disk full")))
	logger.LogError(errors.New("plain"))

	out := buf.String()
	assert.Contains(t, out, "Code: PERSISTENCE_CONNECT")
	assert.Contains(t, out, "Cause: disk full")
	assert.Contains(t, out, "Unexpected error: plain")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLevel(" error "))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}
