package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.ServerPort)
	assert.Equal(t, "/api-auth", cfg.BasePath)
	assert.Equal(t, 5, cfg.Database.MaxOpenConns)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 8, cfg.Auth.BcryptCost)
	assert.Equal(t, "account-events", cfg.MQ.Channel)
	assert.Contains(t, cfg.CORSOrigins, "http://localhost:5173")
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("MQ_BACKEND", "rabbitmq")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 3, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "rabbitmq", cfg.MQ.Backend)
}

func TestLoadConfig_InvalidNumber(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")

	_, err := LoadConfig()
	assert.Error(t, err)
}
