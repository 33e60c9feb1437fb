package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igserve/pkg/config"
)

func newJSONLogger(t *testing.T, buf *bytes.Buffer) Logger {
	t.Helper()
	log, err := NewWithWriter(&config.LoggingConfig{Level: "debug", Format: "json"}, buf)
	require.NoError(t, err)
	return log
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info console", &config.LoggingConfig{Level: "info"}, false},
		{"debug json", &config.LoggingConfig{Level: "debug", Format: "json"}, false},
		{"invalid level", &config.LoggingConfig{Level: "loud"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "igserve.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	log := newJSONLogger(t, &buf)

	log.WithField("field1", "value1").
		WithFields(map[string]interface{}{"field2": 2, "ok": true}).
		InfoWithFields("chained", map[string]interface{}{"took": 5 * time.Millisecond})

	output := buf.String()
	assert.Contains(t, output, `"field1":"value1"`)
	assert.Contains(t, output, `"field2":2`)
	assert.Contains(t, output, `"ok":true`)
	assert.Contains(t, output, `"app":"igserve"`)
	assert.Contains(t, output, "chained")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := newJSONLogger(t, &buf)

	assert.Equal(t, log, log.WithError(nil))

	log.WithError(errors.New("disk full")).Error("save failed")
	assert.True(t, strings.Contains(buf.String(), "disk full"))
}

func TestTestLoggerCapturesFields(t *testing.T) {
	log := NewTestLogger()

	log.WithField("username", "alice").WithError(errors.New("nope")).Warn("login failed")
	log.Info("plain")

	warnings := log.GetMessagesByLevel("WARN")
	require.Len(t, warnings, 1)
	assert.Equal(t, "alice", warnings[0].Fields["username"])
	assert.EqualError(t, warnings[0].Error, "nope")
	assert.True(t, log.HasMessage("plain"))

	log.Clear()
	assert.Empty(t, log.GetMessages())
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.WithField("k", "v").WithError(errors.New("x")).Error("ignored")
	log.InfoWithFields("ignored", nil)
}
