package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("development debug", func(t *testing.T) {
		logger, err := New("debug", "development")
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zap.DebugLevel))
	})

	t.Run("production warn", func(t *testing.T) {
		logger, err := New("warn", "production")
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zap.InfoLevel))
		assert.True(t, logger.Core().Enabled(zap.WarnLevel))
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New("loud", "production")
		require.Error(t, err)
	})
}
