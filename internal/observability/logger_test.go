package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"DEBUG", zapcore.DebugLevel},
		{" warn ", zapcore.WarnLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		logger, err := NewLogger(tt.in)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(tt.want), "level %q", tt.in)
		assert.False(t, logger.Core().Enabled(tt.want-1), "level %q", tt.in)
	}
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	logger := zap.NewExample()
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}
