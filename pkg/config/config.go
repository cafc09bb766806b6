// Package config provides unified configuration for the pinegate gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Legacy DB_* variables mapped to a PostgreSQL DSN
//  4. Environment variable overrides (PINEGATE_ prefix)
//  5. File reference resolution (_file suffix fields)
//  6. Validation
package config

import "time"

// Config holds all configuration for the pinegate gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	Search        SearchConfig        `yaml:"search"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ObservabilityConfig holds monitoring and logging settings.
type ObservabilityConfig struct {
	Metrics  MetricsConfig `yaml:"metrics"`
	LogLevel string        `yaml:"log_level"` // ERROR, WARN, INFO, DEBUG, TRACE; default: INFO
	Debug    string        `yaml:"debug"`     // comma-separated debug categories
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 15s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
}

// StorageConfig selects and configures the credential store.
type StorageConfig struct {
	Type        string             `yaml:"type"` // "memory", "postgres" or "sqlite", default: "memory"
	Postgres    PostgresConfig     `yaml:"postgres"`
	SQLite      SQLiteConfig       `yaml:"sqlite"`
	Credentials []CredentialConfig `yaml:"credentials"` // records for type=memory
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
	Table          string `yaml:"table"`            // default: "api_keys"
	IDColumn       string `yaml:"id_column"`        // default: "api_key_id"
	SecretColumn   string `yaml:"secret_column"`    // default: "api_key"
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"` // default: "pinegate.db"
}

// CredentialConfig describes a single stored credential. Hash is a bcrypt
// hash, never a plaintext key.
type CredentialConfig struct {
	ID       string `yaml:"id" json:"id"`
	Hash     string `yaml:"hash" json:"hash"`
	HashFile string `yaml:"hash_file" json:"hash_file"` // _file variant for hash
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type         string        `yaml:"type"`          // "none" or "apikey", default: "apikey"
	Header       string        `yaml:"header"`        // default: "pinepods_api"
	StoreTimeout time.Duration `yaml:"store_timeout"` // default: 5s
}

// SearchConfig holds settings for the upstream search service.
type SearchConfig struct {
	URL     string        `yaml:"url"`     // default: "http://localhost:5000/api/search"
	Timeout time.Duration `yaml:"timeout"` // default: 10s
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
			SQLite: SQLiteConfig{
				Path: "pinegate.db",
			},
		},
		Auth: AuthConfig{
			Type:         "apikey",
			Header:       "pinepods_api",
			StoreTimeout: 5 * time.Second,
		},
		Search: SearchConfig{
			URL:     "http://localhost:5000/api/search",
			Timeout: 10 * time.Second,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
			LogLevel: "INFO",
		},
	}
}
