package config

import (
	"time"

	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/policy"
)

// Config is the root gateway configuration.
type Config struct {
	// Listen is the address for the metrics and health endpoints.
	Listen string `yaml:"listen"`

	Log            LogConfig        `yaml:"log"`
	Mode           ModeConfig       `yaml:"mode"`
	Evidence       EvidenceConfig   `yaml:"evidence"`
	RateLimit      RateLimitConfig  `yaml:"rate_limit"`
	TrustedSources SourcesConfig    `yaml:"trusted_sources"`
	Connectors     ConnectorsConfig `yaml:"connectors"`

	// Policies configures one policy per connector kind. Kinds without
	// an entry have no policy and are denied outright.
	Policies []PolicySpec `yaml:"policies"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level             string `yaml:"level"`
	Format            string `yaml:"format"`
	RedactCredentials bool   `yaml:"redact_credentials"`
}

// ModeConfig configures the persisted network-mode store.
type ModeConfig struct {
	DBPath string `yaml:"db_path"`
}

// EvidenceConfig configures the evidence store and its retention.
type EvidenceConfig struct {
	DBPath string `yaml:"db_path"`

	RetentionDays       int    `yaml:"retention_days"`
	PruneSchedule       string `yaml:"prune_schedule"`
	ArchiveBeforeDelete bool   `yaml:"archive_before_delete"`
	ArchivePath         string `yaml:"archive_path"`
	MaxRecords          int64  `yaml:"max_records"`
}

// RateLimitConfig configures the shared admission ceiling.
type RateLimitConfig struct {
	GlobalPerMinute int `yaml:"global_per_minute"`
}

// SourcesConfig points at the trusted-sources file.
type SourcesConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// ConnectorsConfig holds per-connector transport settings.
type ConnectorsConfig struct {
	Search SearchConfig `yaml:"search"`
	Email  EmailConfig  `yaml:"email"`
	Slack  SlackConfig  `yaml:"slack"`
}

// SearchConfig configures the web-search connector.
type SearchConfig struct {
	Endpoint   string `yaml:"endpoint"`
	MaxResults int    `yaml:"max_results"`
}

// EmailConfig configures the SMTP connector.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SlackConfig configures the Slack connector.
type SlackConfig struct {
	Token string `yaml:"token"`
}

// PolicySpec is the YAML form of a connector policy. Omitted optional
// fields take the gateway defaults (see Policy).
type PolicySpec struct {
	Name                 string   `yaml:"name"`
	ConnectorKind        string   `yaml:"connector_kind"`
	AllowedOperations    []string `yaml:"allowed_operations"`
	BlockedDomains       []string `yaml:"blocked_domains"`
	AllowedDomains       []string `yaml:"allowed_domains"`
	RequireApproval      bool     `yaml:"require_approval"`
	RateLimitPerMinute   int      `yaml:"rate_limit_per_minute"`
	MaxResponseSizeBytes int64    `yaml:"max_response_size_bytes"`
	TimeoutMS            int      `yaml:"timeout_ms"`

	// Tri-state flags: absent means the default (sanitizers on,
	// policy enabled).
	SanitizeInputs  *bool `yaml:"sanitize_inputs"`
	SanitizeOutputs *bool `yaml:"sanitize_outputs"`
	Enabled         *bool `yaml:"enabled"`
}

// Policy materializes the spec into a connector policy, filling gateway
// defaults for omitted numeric fields.
func (s PolicySpec) Policy() *policy.Policy {
	kind := comm.ConnectorKind(s.ConnectorKind)
	p := policy.NewPolicy(s.Name, kind)

	p.AllowedOperations = s.AllowedOperations
	p.BlockedDomains = s.BlockedDomains
	p.AllowedDomains = s.AllowedDomains
	p.RequireApproval = s.RequireApproval
	if s.RateLimitPerMinute > 0 {
		p.RateLimitPerMinute = s.RateLimitPerMinute
	}
	if s.MaxResponseSizeBytes > 0 {
		p.MaxResponseSizeBytes = s.MaxResponseSizeBytes
	}
	if s.TimeoutMS > 0 {
		p.Timeout = time.Duration(s.TimeoutMS) * time.Millisecond
	}
	if s.SanitizeInputs != nil {
		p.SanitizeInputs = *s.SanitizeInputs
	}
	if s.SanitizeOutputs != nil {
		p.SanitizeOutputs = *s.SanitizeOutputs
	}
	if s.Enabled != nil {
		p.Enabled = *s.Enabled
	}
	return p
}
