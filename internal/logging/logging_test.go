package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"planning-performance/internal/config"
)

func TestNew(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.LoggingConfig
		verbose bool
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		{"defaults", config.LoggingConfig{}, false, zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn json", config.LoggingConfig{Level: "warn", Format: "json"}, false, zapcore.WarnLevel, zapcore.InfoLevel},
		{"verbose wins", config.LoggingConfig{Level: "error", Format: "console"}, true, zapcore.DebugLevel, zapcore.InvalidLevel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := New(tc.cfg, tc.verbose)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tc.enabled))
			if tc.muted != zapcore.InvalidLevel {
				assert.False(t, logger.Core().Enabled(tc.muted))
			}
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)
}
