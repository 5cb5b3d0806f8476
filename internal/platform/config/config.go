package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv        string   `env:"APP_ENV" default:"development"`
	Port          string   `env:"PORT" default:"8080"`
	DiscordToken  string   `env:"DISCORD_TOKEN"`
	OwnerIDs      []string `env:"OWNER_IDS"`
	CommandPrefix string   `env:"COMMAND_PREFIX" default:"."`
	LogLevel      string   `env:"LOG_LEVEL" default:"info"`
	LogFormat     string   `env:"LOG_FORMAT" default:"text"`

	StoreBackend  string `env:"STORE_BACKEND" default:"pebble"`
	PebblePath    string `env:"PEBBLE_PATH" default:"data/snakebot"`
	RedisURL      string `env:"REDIS_URL"`
	MutatorShards int    `env:"MUTATOR_SHARDS" default:"16"`

	DownvoteEmoji       string `env:"DOWNVOTE_EMOJI" default:"<:downvote:766414744730206228>"`
	UpvoteName          string `env:"UPVOTE_NAME" default:"upvote"`
	DownvoteName        string `env:"DOWNVOTE_NAME" default:"downvote"`
	SubmissionThreshold int    `env:"SUBMISSION_THRESHOLD" default:"8"`

	KarmaWindow      time.Duration `env:"KARMA_WINDOW" default:"30m"`
	PingDeleteWindow time.Duration `env:"PING_DELETE_WINDOW" default:"30s"`
	PromptTimeout    time.Duration `env:"PROMPT_TIMEOUT" default:"5m"`

	// LogAnnounceRate is the sustained logs-channel posts per second per guild.
	LogAnnounceRate  float64 `env:"LOG_ANNOUNCE_RATE" default:"1"`
	LogAnnounceBurst int     `env:"LOG_ANNOUNCE_BURST" default:"5"`

	ClearPollsOnStart bool `env:"CLEAR_POLLS_ON_START" default:"false"`
}

var backends = []string{"pebble", "redis", "memory"}

// Load reads .env (if present) and the environment. OWNER_IDS is comma separated.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, &env.Options{SliceSep: ","}); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadStore reads only what the offline tools need to open the store.
func LoadStore() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, &env.Options{SliceSep: ","}); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := validateStore(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	if err := validateStore(cfg); err != nil {
		return err
	}
	if cfg.SubmissionThreshold < 1 {
		return errors.New("SUBMISSION_THRESHOLD must be at least 1")
	}
	if cfg.KarmaWindow <= 0 || cfg.PingDeleteWindow <= 0 || cfg.PromptTimeout <= 0 {
		return errors.New("KARMA_WINDOW, PING_DELETE_WINDOW and PROMPT_TIMEOUT must be positive")
	}
	if cfg.LogAnnounceRate <= 0 || cfg.LogAnnounceBurst < 1 {
		return errors.New("LOG_ANNOUNCE_RATE must be positive and LOG_ANNOUNCE_BURST at least 1")
	}
	return nil
}

func validateStore(cfg *Config) error {
	if !slices.Contains(backends, cfg.StoreBackend) {
		return fmt.Errorf("STORE_BACKEND must be one of %v, got %q", backends, cfg.StoreBackend)
	}
	if cfg.StoreBackend == "redis" && cfg.RedisURL == "" {
		return errors.New("REDIS_URL is required when STORE_BACKEND is redis")
	}
	if cfg.StoreBackend == "pebble" && cfg.PebblePath == "" {
		return errors.New("PEBBLE_PATH is required when STORE_BACKEND is pebble")
	}
	if cfg.MutatorShards < 1 {
		return errors.New("MUTATOR_SHARDS must be at least 1")
	}
	return nil
}
