package config

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, PINEGATE_CONFIG env, ./config.yaml, /etc/pinegate/config.yaml)
//  3. Legacy DB_* environment variables
//  4. PINEGATE_* environment variable overrides
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyLegacyDBEnv(&cfg)

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. PINEGATE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/pinegate/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("PINEGATE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/pinegate/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyLegacyDBEnv maps the DB_HOST, DB_PORT, DB_USER, DB_PASSWORD and
// DB_NAME variables used by existing PinePods deployments onto a PostgreSQL
// DSN. Only applies when DB_HOST is set and no DSN is configured.
func applyLegacyDBEnv(cfg *Config) {
	host := os.Getenv("DB_HOST")
	if host == "" || cfg.Storage.Postgres.DSN != "" || cfg.Storage.Postgres.DSNFile != "" {
		return
	}

	port := envOrDefault("DB_PORT", "5432")
	user := envOrDefault("DB_USER", "postgres")
	name := envOrDefault("DB_NAME", "pypods_database")

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + name,
	}
	if pw, ok := os.LookupEnv("DB_PASSWORD"); ok {
		u.User = url.UserPassword(user, pw)
	} else {
		u.User = url.User(user)
	}

	cfg.Storage.Type = "postgres"
	cfg.Storage.Postgres.DSN = u.String()
}

// applyEnvOverrides maps PINEGATE_* environment variables to config fields.
// Malformed numeric or duration values are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PINEGATE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PINEGATE_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("PINEGATE_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("PINEGATE_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("PINEGATE_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLite.Path = v
	}
	if v := os.Getenv("PINEGATE_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}
	if v := os.Getenv("PINEGATE_AUTH_HEADER"); v != "" {
		cfg.Auth.Header = v
	}
	if v := os.Getenv("PINEGATE_STORE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PINEGATE_STORE_TIMEOUT: %w", err)
		}
		cfg.Auth.StoreTimeout = d
	}
	if v := os.Getenv("PINEGATE_SEARCH_URL"); v != "" {
		cfg.Search.URL = v
	}
	if v := os.Getenv("PINEGATE_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	// PINEGATE_CREDENTIALS: JSON array of {"id": ..., "hash": ...} records.
	if v := os.Getenv("PINEGATE_CREDENTIALS"); v != "" {
		creds, err := parseCredentialsJSON(v)
		if err != nil {
			return err
		}
		cfg.Storage.Credentials = creds
	}

	return nil
}

// parseCredentialsJSON parses a JSON array of credential records.
func parseCredentialsJSON(jsonStr string) ([]CredentialConfig, error) {
	var creds []CredentialConfig
	if err := json.Unmarshal([]byte(jsonStr), &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials JSON: %w", err)
	}
	return creds, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	// storage.credentials[*].hash_file -> storage.credentials[*].hash
	for i := range cfg.Storage.Credentials {
		if cfg.Storage.Credentials[i].HashFile != "" && cfg.Storage.Credentials[i].Hash == "" {
			val, err := readSecretFile(cfg.Storage.Credentials[i].HashFile)
			if err != nil {
				return fmt.Errorf("storage.credentials[%d].hash_file: %w", i, err)
			}
			cfg.Storage.Credentials[i].Hash = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
