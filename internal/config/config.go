// Package config provides configuration management for leagr. It loads
// settings from environment variables, an optional config file, and
// built-in defaults, in that precedence order (spf13/viper).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration settings.
type Config struct {
	// Port is the HTTP server port.
	Port string

	// DataDir is the root directory the league store writes under.
	DataDir string

	// Environment is the deployment environment (dev, staging, production).
	Environment string

	// LogLevel is the logging level (DEBUG, INFO, WARN, ERROR).
	LogLevel string

	// CORSOrigins is the list of allowed CORS origins.
	CORSOrigins []string

	// SettingsCacheTTLSeconds bounds how long resolved settings stay cached
	// before the next read re-resolves them (spec §4.I, default 300s).
	SettingsCacheTTLSeconds int

	// RateLimitPerMinute bounds requests accepted per client IP per minute.
	RateLimitPerMinute int

	// BaseHost is stripped from the end of an inbound request's Host
	// header to resolve the league ID from its subdomain (spec §6
	// subdomain routing), e.g. "leagr.example.com".
	BaseHost string

	// RequestTimeoutSeconds bounds how long a single request may run
	// before the Timeout middleware aborts it with 503.
	RequestTimeoutSeconds int

	// UsePolling disables the fsnotify-backed settings watcher in favor of
	// the settings cache's plain TTL expiry (spec.md USE_POLLING env var).
	// Set this where inotify isn't available or reliable, e.g. some Docker
	// bind mounts and network filesystems.
	UsePolling bool
}

// Load reads configuration from config.yaml (if present in the working
// directory or /etc/leagr), environment variables prefixed LEAGR_, and
// falls back to defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/leagr")
	}

	v.SetDefault("port", "8080")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("environment", "production")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("settings_cache_ttl_seconds", 300)
	v.SetDefault("rate_limit_per_minute", 120)
	v.SetDefault("base_host", "")
	v.SetDefault("request_timeout_seconds", 10)
	v.SetDefault("use_polling", false)

	v.SetEnvPrefix("LEAGR")
	v.AutomaticEnv()
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:                    v.GetString("port"),
		DataDir:                 v.GetString("data_dir"),
		Environment:             v.GetString("environment"),
		LogLevel:                v.GetString("log_level"),
		CORSOrigins:             v.GetStringSlice("cors_origins"),
		SettingsCacheTTLSeconds: v.GetInt("settings_cache_ttl_seconds"),
		RateLimitPerMinute:      v.GetInt("rate_limit_per_minute"),
		BaseHost:                v.GetString("base_host"),
		RequestTimeoutSeconds:   v.GetInt("request_timeout_seconds"),
		UsePolling:              v.GetBool("use_polling"),
	}

	validEnvs := map[string]bool{"dev": true, "staging": true, "production": true}
	if !validEnvs[cfg.Environment] {
		return nil, fmt.Errorf("environment must be one of: dev, staging, production (got: %s)", cfg.Environment)
	}

	validLevels := map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}
	if !validLevels[cfg.LogLevel] {
		return nil, fmt.Errorf("log_level must be one of: DEBUG, INFO, WARN, ERROR (got: %s)", cfg.LogLevel)
	}

	return cfg, nil
}

// Summary returns a copy of the config safe to log: nothing here is
// secret, but this keeps the shape stable if a credential is added later.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"port":                      c.Port,
		"data_dir":                  c.DataDir,
		"environment":               c.Environment,
		"log_level":                 c.LogLevel,
		"cors_origins":              c.CORSOrigins,
		"settings_cache_ttl_seconds": c.SettingsCacheTTLSeconds,
		"rate_limit_per_minute":     c.RateLimitPerMinute,
		"base_host":                 c.BaseHost,
		"request_timeout_seconds":   c.RequestTimeoutSeconds,
		"use_polling":               c.UsePolling,
	}
}
