// Package config loads server settings from an optional .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port      int
	DBPath    string
	LogLevel  string
	LogFormat string

	JWTSecret string
	JWTTTL    time.Duration

	// RedisAddr enables the distributed group lock and event publishing.
	// Empty means single-instance mode.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// LockTTL is the group lease length. Leases are not refreshed, so it must
	// exceed the slowest ledger transaction.
	LockTTL       time.Duration
	EventsChannel string

	MetricsEnabled bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "./data/ledger.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOCK_TTL", "10s")
	v.SetDefault("EVENTS_CHANNEL", "groupledger.events")
	v.SetDefault("METRICS_ENABLED", true)
}

// Load reads envFile if it exists, then lets environment variables override
// it. An empty envFile skips the file.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv() // environment variables override .env

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:           v.GetInt("PORT"),
		DBPath:         v.GetString("DB_PATH"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTTTL:         v.GetDuration("JWT_TTL"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),
		LockTTL:        v.GetDuration("LOCK_TTL"),
		EventsChannel:  v.GetString("EVENTS_CHANNEL"),
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH must be set")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("invalid JWT_TTL %s", c.JWTTTL)
	}
	if c.RedisAddr != "" && c.LockTTL <= 0 {
		return fmt.Errorf("invalid LOCK_TTL %s", c.LockTTL)
	}
	return nil
}
