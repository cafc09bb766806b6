package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Storage.Type {
	case "memory":
		seen := make(map[string]bool, len(c.Storage.Credentials))
		for i, cred := range c.Storage.Credentials {
			if cred.ID == "" {
				errs = append(errs, fmt.Errorf("storage.credentials[%d].id is required", i))
			} else if seen[cred.ID] {
				errs = append(errs, fmt.Errorf("storage.credentials[%d].id %q is duplicated", i, cred.ID))
			}
			seen[cred.ID] = true
			if cred.Hash == "" && cred.HashFile == "" {
				errs = append(errs, fmt.Errorf("storage.credentials[%d].hash or hash_file is required", i))
			}
		}
	case "postgres":
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, fmt.Errorf("storage.sqlite.path is required when storage.type is \"sqlite\""))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\", \"postgres\", or \"sqlite\", got %q", c.Storage.Type))
	}

	switch c.Auth.Type {
	case "none":
	case "apikey":
		if strings.TrimSpace(c.Auth.Header) == "" {
			errs = append(errs, fmt.Errorf("auth.header is required when auth.type is \"apikey\""))
		}
		if c.Auth.StoreTimeout <= 0 {
			errs = append(errs, fmt.Errorf("auth.store_timeout must be > 0, got %v", c.Auth.StoreTimeout))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\" or \"apikey\", got %q", c.Auth.Type))
	}

	if c.Search.URL != "" {
		u, err := url.Parse(c.Search.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("search.url must be an absolute http(s) URL, got %q", c.Search.URL))
		}
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	switch strings.ToUpper(c.Observability.LogLevel) {
	case "", "ERROR", "WARN", "WARNING", "INFO", "DEBUG", "TRACE":
	default:
		errs = append(errs, fmt.Errorf("observability.log_level must be ERROR, WARN, INFO, DEBUG, or TRACE, got %q", c.Observability.LogLevel))
	}

	return errors.Join(errs...)
}
