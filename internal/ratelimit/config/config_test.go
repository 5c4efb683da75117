package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arq/internal/ratelimit/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	expected := map[models.EndpointClass]models.Policy{
		models.ClassAuth:      {MaxRequests: 5, Window: 15 * time.Minute},
		models.ClassChat:      {MaxRequests: 20, Window: time.Minute},
		models.ClassAPI:       {MaxRequests: 60, Window: time.Minute},
		models.ClassSensitive: {MaxRequests: 10, Window: time.Hour},
	}
	assert.Equal(t, expected, cfg.Policies)
	assert.Equal(t, 60*time.Second, cfg.SweepInterval)
}

func TestApplyOverrides(t *testing.T) {
	t.Run("replaces only named classes", func(t *testing.T) {
		cfg := DefaultConfig()
		require.NoError(t, cfg.ApplyOverrides("auth=3/10m, chat=40/30s"))

		auth, _ := cfg.Policy(models.ClassAuth)
		chat, _ := cfg.Policy(models.ClassChat)
		api, _ := cfg.Policy(models.ClassAPI)
		assert.Equal(t, models.Policy{MaxRequests: 3, Window: 10 * time.Minute}, auth)
		assert.Equal(t, models.Policy{MaxRequests: 40, Window: 30 * time.Second}, chat)
		assert.Equal(t, models.Policy{MaxRequests: 60, Window: time.Minute}, api)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		cfg := DefaultConfig()
		require.NoError(t, cfg.ApplyOverrides(""))
		assert.Equal(t, DefaultConfig().Policies, cfg.Policies)
	})

	t.Run("malformed input leaves table untouched", func(t *testing.T) {
		for _, raw := range []string{
			"auth",
			"auth=5",
			"auth=five/1m",
			"auth=5/soon",
			"auth=0/1m",
			"auth=5/0s",
			"write=5/1m",
			"auth=3/10m,bogus=1/1m",
		} {
			cfg := DefaultConfig()
			assert.Error(t, cfg.ApplyOverrides(raw), raw)
			assert.Equal(t, DefaultConfig().Policies, cfg.Policies, raw)
		}
	})
}

func TestSorted(t *testing.T) {
	assert.Equal(t,
		[]models.EndpointClass{models.ClassAPI, models.ClassAuth, models.ClassChat, models.ClassSensitive},
		DefaultConfig().Sorted(),
	)
}
