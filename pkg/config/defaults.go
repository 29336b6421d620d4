package config

// DefaultConfig returns the built-in configuration: a locked-down
// gateway with read-only connectors enabled and outbound connectors
// behind approval.
func DefaultConfig() *Config {
	return &Config{
		Listen: ":9090",
		Log: LogConfig{
			Level:             "info",
			Format:            "json",
			RedactCredentials: true,
		},
		Mode: ModeConfig{
			DBPath: "data/netmode.db",
		},
		Evidence: EvidenceConfig{
			DBPath:        "data/evidence.db",
			RetentionDays: 90,
			PruneSchedule: "0 3 * * *",
			ArchivePath:   "data/archives/",
		},
		RateLimit: RateLimitConfig{
			GlobalPerMinute: 100,
		},
		TrustedSources: SourcesConfig{
			Watch: true,
		},
		Connectors: ConnectorsConfig{
			Search: SearchConfig{MaxResults: 10},
			Email:  EmailConfig{Port: 587},
		},
		Policies: defaultPolicies(),
	}
}

// defaultPolicies covers every connector kind: read-side connectors at
// 30/minute, outbound connectors at 10/minute behind approval.
func defaultPolicies() []PolicySpec {
	approval := true
	return []PolicySpec{
		{Name: "web-search", ConnectorKind: "web_search"},
		{Name: "web-fetch", ConnectorKind: "web_fetch"},
		{Name: "rss", ConnectorKind: "rss"},
		{Name: "email", ConnectorKind: "email_smtp", RequireApproval: approval, RateLimitPerMinute: 10},
		{Name: "slack", ConnectorKind: "slack", RequireApproval: approval, RateLimitPerMinute: 10},
	}
}
