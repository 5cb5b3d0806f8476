package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("STORE_BACKEND", "memory")
}

func TestLoad_AllRequiredVarsSet(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OWNER_IDS", "111,222")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.DiscordToken)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, []string{"111", "222"}, cfg.OwnerIDs)
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ".", cfg.CommandPrefix)
	assert.Equal(t, 8, cfg.SubmissionThreshold)
	assert.Equal(t, 16, cfg.MutatorShards)
	assert.Equal(t, 30*time.Minute, cfg.KarmaWindow)
	assert.Equal(t, 30*time.Second, cfg.PingDeleteWindow)
	assert.Equal(t, 5*time.Minute, cfg.PromptTimeout)
	assert.Equal(t, "upvote", cfg.UpvoteName)
	assert.False(t, cfg.ClearPollsOnStart)
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("KARMA_WINDOW", "1h")
	t.Setenv("CLEAR_POLLS_ON_START", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, time.Hour, cfg.KarmaWindow)
	assert.True(t, cfg.ClearPollsOnStart)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"missing token", "DISCORD_TOKEN", "", "DISCORD_TOKEN is required"},
		{"unknown backend", "STORE_BACKEND", "sqlite", "STORE_BACKEND must be one of"},
		{"zero threshold", "SUBMISSION_THRESHOLD", "0", "SUBMISSION_THRESHOLD must be at least 1"},
		{"zero shards", "MUTATOR_SHARDS", "0", "MUTATOR_SHARDS must be at least 1"},
		{"negative window", "KARMA_WINDOW", "-1m", "must be positive"},
		{"zero burst", "LOG_ANNOUNCE_BURST", "0", "LOG_ANNOUNCE_BURST at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_RedisRequiresURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, "REDIS_URL is required when STORE_BACKEND is redis", err.Error())

	t.Setenv("REDIS_URL", "redis://localhost:6379")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
}

func TestLoadStore_NoTokenNeeded(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := LoadStore()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StoreBackend)
}
