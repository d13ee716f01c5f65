package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}

func TestNew(t *testing.T) {
	l, err := New("debug", FormatConsole)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("warn", FormatJSON)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestSanitizeLogMessage(t *testing.T) {
	tests := []struct {
		in     string
		leaked string
	}{
		{"login password=hunter2 failed", "hunter2"},
		{"Bearer: eyJhbGciOi", "eyJhbGciOi"},
		{"aws access_key=AKIA123", "AKIA123"},
		{"dial postgres://lab:s3cret@db:5432/lab", "s3cret"},
	}

	for _, tt := range tests {
		out := SanitizeLogMessage(tt.in)
		assert.NotContains(t, out, tt.leaked)
		assert.Contains(t, out, redactedPlaceholder)
	}
}
