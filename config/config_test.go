package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 0, cfg.RateLimitPerMinute)
	assert.NotEmpty(t, cfg.JWTSecret, "a random secret is generated when none is configured")
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfigRejectsUnknownStore(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_DRIVER", "redis")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigAuthRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a, ,http://b "))
	assert.Nil(t, splitList(""))
}
