package config

// AppConfig is the main client configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - http.go: backend API endpoint and request timeout
//   - services.go: job polling and upload limits
//   - database.go: Redis result cache
//   - auth.go: credentials used by the CLI
//   - observability.go: logging and metrics
type AppConfig struct {
	// API configuration
	API APIConfig

	// Jobs configuration
	Jobs JobsConfig

	// Result cache configuration
	Cache CacheConfig

	// Credentials used for non-interactive login
	Credentials CredentialsConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.API.Sanitize()
	c.Jobs.Sanitize()
	c.Cache.Sanitize()
	c.Observability.Sanitize()
}
