package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	t.Run("defaults pass", func(t *testing.T) {
		resetViper(t)
		Load("")
		assert.NoError(t, ValidateConfig())
	})

	t.Run("collects all problems", func(t *testing.T) {
		resetViper(t)
		Load("")
		viper.Set("iters", 0)
		viper.Set("timer", "sundial")
		viper.Set("timeout", "-5s")
		viper.Set("top_n", -1)

		err := ValidateConfig()
		require.ErrorIs(t, err, ErrInvalid)
		assert.Contains(t, err.Error(), "iters must be positive")
		assert.Contains(t, err.Error(), "timer must be")
		assert.Contains(t, err.Error(), "timeout must not be negative")
		assert.Contains(t, err.Error(), "top_n must be positive")
	})
}
