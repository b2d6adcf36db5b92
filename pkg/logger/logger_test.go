package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewZap_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			z, err := NewZap(tt.level, false, "aster")
			require.NoError(t, err)
			assert.True(t, z.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, z.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNew(t *testing.T) {
	l, z, err := New("info", true, "aster")
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.NotNil(t, z)
}
