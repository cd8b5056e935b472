package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

/* Config é um pacote auxiliar. Poderia ser uma lib externa */

type Config struct {
	Port          string `mapstructure:"PORT"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	SourcesFile string `mapstructure:"SOURCES_FILE"`

	// Ingress limits
	MaxBodyBytes     int64 `mapstructure:"MAX_BODY_BYTES"`
	RateLimitDefault int   `mapstructure:"RATE_LIMIT_DEFAULT"`
	RateWindowSecs   int   `mapstructure:"RATE_WINDOW_SECS"`

	// Queue / dispatcher
	WorkerCount       int `mapstructure:"WORKER_COUNT"`
	LeaseBatchSize    int `mapstructure:"LEASE_BATCH_SIZE"`
	LeaseDurationSecs int `mapstructure:"LEASE_DURATION_SECS"`
	MaxAttempts       int `mapstructure:"MAX_ATTEMPTS"`

	// Audit retention for terminal events (0 = keep forever)
	AckedTTLHours int `mapstructure:"ACKED_TTL_HOURS"`

	// Upstream metrics API (behind the circuit breaker). The signing
	// secret is a whsec_ value; empty disables request signing.
	UpstreamURL             string `mapstructure:"UPSTREAM_URL"`
	UpstreamSigningSecret   string `mapstructure:"UPSTREAM_SIGNING_SECRET"`
	BreakerFailureThreshold int    `mapstructure:"BREAKER_FAILURE_THRESHOLD"`
	BreakerCooldownSecs     int    `mapstructure:"BREAKER_COOLDOWN_SECS"`
}

func GetConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SOURCES_FILE", "sources.yaml")
	viper.SetDefault("MAX_BODY_BYTES", 1<<20)
	viper.SetDefault("RATE_LIMIT_DEFAULT", 120)
	viper.SetDefault("RATE_WINDOW_SECS", 60)
	viper.SetDefault("WORKER_COUNT", 4)
	viper.SetDefault("LEASE_BATCH_SIZE", 10)
	viper.SetDefault("LEASE_DURATION_SECS", 30)
	viper.SetDefault("MAX_ATTEMPTS", 3)
	viper.SetDefault("ACKED_TTL_HOURS", 1)
	viper.SetDefault("UPSTREAM_URL", "")
	viper.SetDefault("UPSTREAM_SIGNING_SECRET", "")
	viper.SetDefault("BREAKER_FAILURE_THRESHOLD", 5)
	viper.SetDefault("BREAKER_COOLDOWN_SECS", 30)

	// A missing .env file is fine: env vars and defaults cover everything
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	return &config, nil
}

// RateWindow returns the rate-limit window as a duration.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateWindowSecs) * time.Second
}

// LeaseDuration returns the worker lease window as a duration.
func (c *Config) LeaseDuration() time.Duration {
	return time.Duration(c.LeaseDurationSecs) * time.Second
}

// BreakerCooldown returns how long an open breaker stays open.
func (c *Config) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSecs) * time.Second
}

// AckedTTL returns the audit retention for acknowledged events.
func (c *Config) AckedTTL() time.Duration {
	return time.Duration(c.AckedTTLHours) * time.Hour
}
