package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"PORT"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		TTL      string `yaml:"ttl" env:"REDIS_TTL"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"POSTGRES_URL"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl" env:"QUIZ_CACHE_TTL"`
	} `yaml:"quiz"`
	Attempts struct {
		Tick              string `yaml:"tick" env:"ATTEMPT_TICK"`
		SubmissionTimeout string `yaml:"submission_timeout" env:"SUBMISSION_TIMEOUT"`
		Retention         string `yaml:"retention" env:"ATTEMPT_RETENTION"`
	} `yaml:"attempts"`
	Checkpoints struct {
		// Backend is one of memory, redis or sqlite. Empty picks redis when
		// configured, memory otherwise.
		Backend string `yaml:"backend" env:"CHECKPOINT_BACKEND"`
		Path    string `yaml:"path" env:"CHECKPOINT_PATH"`
		Grace   string `yaml:"grace" env:"CHECKPOINT_GRACE"`
	} `yaml:"checkpoints"`
	Auth struct {
		Secret   string `yaml:"secret" env:"AUTH_SECRET"`
		TokenTTL string `yaml:"token_ttl" env:"AUTH_TOKEN_TTL"`
	} `yaml:"auth"`
	Rabbit struct {
		URL      string `yaml:"url" env:"RABBIT_URL"`
		Exchange string `yaml:"exchange" env:"RABBIT_EXCHANGE"`
	} `yaml:"rabbit"`
}

// Load reads YAML config from path, then applies environment overrides.
// A missing file is not an error; the environment alone is used.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// LogLevel parses the configured level, defaulting to info.
func (c Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}
