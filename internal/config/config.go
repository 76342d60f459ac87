package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	WhaleEndpoint   string
	GenericEndpoint string

	ExcludedAssetID    string
	XYKMinTVL          float64
	CacheTTL           time.Duration
	ResolveConcurrency int

	ListenAddr      string
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
	LogLevel        string
}

// Defaults for the public Hydration indexers. Overridable per environment.
const (
	DefaultWhaleEndpoint   = "https://galacticcouncil.squids.live/hydration-storage-dictionary:whale-prod/api/graphql"
	DefaultGenericEndpoint = "https://galacticcouncil.squids.live/hydration-pools:prod/api/graphql"
)

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HYDRATION")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("whale-endpoint", DefaultWhaleEndpoint)
	v.SetDefault("generic-endpoint", DefaultGenericEndpoint)
	v.SetDefault("excluded-asset", "1")
	v.SetDefault("xyk-min-tvl", 10.0)
	v.SetDefault("cache-ttl", 5*time.Minute)
	v.SetDefault("resolve-concurrency", 10)
	v.SetDefault("listen", ":8080")
	v.SetDefault("refresh-interval", time.Minute)
	v.SetDefault("request-timeout", time.Duration(0))
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		WhaleEndpoint:      v.GetString("whale-endpoint"),
		GenericEndpoint:    v.GetString("generic-endpoint"),
		ExcludedAssetID:    v.GetString("excluded-asset"),
		XYKMinTVL:          v.GetFloat64("xyk-min-tvl"),
		CacheTTL:           v.GetDuration("cache-ttl"),
		ResolveConcurrency: v.GetInt("resolve-concurrency"),
		ListenAddr:         v.GetString("listen"),
		RefreshInterval:    v.GetDuration("refresh-interval"),
		RequestTimeout:     v.GetDuration("request-timeout"),
		LogLevel:           v.GetString("log-level"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.WhaleEndpoint == "" {
		return fmt.Errorf("whale-endpoint is required")
	}
	if c.GenericEndpoint == "" {
		return fmt.Errorf("generic-endpoint is required")
	}
	if c.ResolveConcurrency <= 0 {
		return fmt.Errorf("resolve-concurrency must be positive")
	}
	return nil
}
