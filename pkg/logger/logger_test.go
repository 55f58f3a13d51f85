package logger

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.input), "level %q", tt.input)
	}
}

func TestNop_ChainsSafely(t *testing.T) {
	log := NewNop()

	derived := log.
		WithField("module", "test").
		WithFields(map[string]interface{}{"a": 1, "b": "two"}).
		WithError(errors.New("boom"))

	assert.NotNil(t, derived)
	derived.Debug("discarded")
	derived.Info("discarded")
	derived.Warnf("discarded %d", 1)
	derived.Errorf("discarded %s", "too")
}
