package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/kfluo/pkg/config"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		opts, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, 32, opts.MaxResolveDepth)
		assert.Equal(t, "info", opts.LogLevel)
		assert.Equal(t, "StateMachine", opts.LogPrefix)
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Setenv("KFLUO_MAX_RESOLVE_DEPTH", "4")
		t.Setenv("KFLUO_LOG_LEVEL", "debug")
		t.Setenv("KFLUO_LOG_PREFIX", "player")

		opts, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, 4, opts.MaxResolveDepth)
		assert.Equal(t, "debug", opts.LogLevel)
		assert.Equal(t, "player", opts.LogPrefix)
	})

	t.Run("Invalid depth", func(t *testing.T) {
		t.Setenv("KFLUO_MAX_RESOLVE_DEPTH", "0")

		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("Unparsable depth", func(t *testing.T) {
		t.Setenv("KFLUO_MAX_RESOLVE_DEPTH", "many")

		_, err := config.Load()
		assert.ErrorContains(t, err, "parse env")
	})
}
