package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", EnvDevelopment)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.NotZero(t, cfg.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 240*time.Hour, cfg.Posts.RetentionPeriod)
}

func TestLoadProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoadProductionWithSecret(t *testing.T) {
	t.Setenv("ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "a-long-enough-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "a-long-enough-secret", cfg.JWT.Secret)
}
