package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration: built-in defaults, then the YAML file
// (skipped when path is empty), then CONDUIT_* environment overrides,
// validated last. The file is unmarshalled over the defaults, so absent
// fields keep their default and explicit zeros take effect.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies CONDUIT_* environment variables over the
// loaded configuration. Environment always wins.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONDUIT_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("CONDUIT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CONDUIT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("CONDUIT_GLOBAL_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.GlobalPerMinute = n
		}
	}
	if v := os.Getenv("CONDUIT_EVIDENCE_DB"); v != "" {
		cfg.Evidence.DBPath = v
	}
	if v := os.Getenv("CONDUIT_MODE_DB"); v != "" {
		cfg.Mode.DBPath = v
	}
	if v := os.Getenv("CONDUIT_TRUSTED_SOURCES"); v != "" {
		cfg.TrustedSources.Path = v
	}
	if v := os.Getenv("CONDUIT_SMTP_PASSWORD"); v != "" {
		cfg.Connectors.Email.Password = v
	}
	if v := os.Getenv("CONDUIT_SLACK_TOKEN"); v != "" {
		cfg.Connectors.Slack.Token = v
	}
}
