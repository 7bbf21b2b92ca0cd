// Package config holds server configuration: environment variables with
// defaults, optionally overlaid by a YAML profile file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds server configuration.
type Config struct {
	Addr            string `yaml:"addr"`
	LogLevel        string `yaml:"log_level"`
	BundleDir       string `yaml:"bundle_dir"`
	AuditDBPath     string `yaml:"audit_db_path"`
	StateServiceURL string `yaml:"state_service_url"`
	RedisAddr       string `yaml:"redis_addr"`
	OTLPEndpoint    string `yaml:"otlp_endpoint"`
	RateRPS         int    `yaml:"rate_rps"`
	RateBurst       int    `yaml:"rate_burst"`
}

// Load reads configuration from environment variables, falling back to
// defaults suitable for local development.
func Load() *Config {
	cfg := &Config{
		Addr:            envOr("TRIAGE_ADDR", ":8080"),
		LogLevel:        envOr("TRIAGE_LOG_LEVEL", "INFO"),
		BundleDir:       os.Getenv("TRIAGE_BUNDLE_DIR"),
		AuditDBPath:     envOr("TRIAGE_AUDIT_DB", "triage-audit.db"),
		StateServiceURL: os.Getenv("TRIAGE_STATE_SERVICE_URL"),
		RedisAddr:       os.Getenv("TRIAGE_REDIS_ADDR"),
		OTLPEndpoint:    os.Getenv("TRIAGE_OTLP_ENDPOINT"),
		RateRPS:         envIntOr("TRIAGE_RATE_RPS", 20),
		RateBurst:       envIntOr("TRIAGE_RATE_BURST", 40),
	}
	return cfg
}

// ApplyProfile overlays values from a YAML profile file. Zero values in
// the file leave the current setting untouched.
func (c *Config) ApplyProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config profile: %w", err)
	}
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("config profile %s: %w", path, err)
	}
	merge(c, &overlay)
	return nil
}

func merge(dst, src *Config) {
	if src.Addr != "" {
		dst.Addr = src.Addr
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.BundleDir != "" {
		dst.BundleDir = src.BundleDir
	}
	if src.AuditDBPath != "" {
		dst.AuditDBPath = src.AuditDBPath
	}
	if src.StateServiceURL != "" {
		dst.StateServiceURL = src.StateServiceURL
	}
	if src.RedisAddr != "" {
		dst.RedisAddr = src.RedisAddr
	}
	if src.OTLPEndpoint != "" {
		dst.OTLPEndpoint = src.OTLPEndpoint
	}
	if src.RateRPS > 0 {
		dst.RateRPS = src.RateRPS
	}
	if src.RateBurst > 0 {
		dst.RateBurst = src.RateBurst
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
