// Command server runs the pinegate API gateway.
//
// Configuration is read from a YAML file and PINEGATE_* environment
// variables (see pkg/config). Legacy DB_HOST, DB_PORT, DB_USER,
// DB_PASSWORD and DB_NAME variables select a PostgreSQL credential store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pinepods/pinegate/pkg/auth"
	"github.com/pinepods/pinegate/pkg/auth/apikey"
	"github.com/pinepods/pinegate/pkg/auth/noop"
	"github.com/pinepods/pinegate/pkg/config"
	"github.com/pinepods/pinegate/pkg/credential"
	"github.com/pinepods/pinegate/pkg/credential/memory"
	"github.com/pinepods/pinegate/pkg/credential/postgres"
	"github.com/pinepods/pinegate/pkg/credential/sqlite"
	"github.com/pinepods/pinegate/pkg/debug"
	"github.com/pinepods/pinegate/pkg/search"
	transporthttp "github.com/pinepods/pinegate/pkg/transport/http"
)

var (
	configPath  string
	checkConfig bool
)

var rootCmd = &cobra.Command{
	Use:           "pinegate",
	Short:         "API key gateway for PinePods clients",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (default: $PINEGATE_CONFIG, ./config.yaml, /etc/pinegate/config.yaml)")
	rootCmd.Flags().BoolVarP(&checkConfig, "check", "t", false, "validate configuration and exit")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if unknown := debug.Init(cfg.Observability.Debug, cfg.Observability.LogLevel); len(unknown) > 0 {
		slog.Warn("ignoring unknown debug categories", "categories", unknown, "known", debug.Known)
	}

	if checkConfig {
		slog.Info("configuration valid")
		return nil
	}

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("creating credential store: %w", err)
	}
	defer store.Close()

	chain, err := newAuthChain(cfg.Auth, store)
	if err != nil {
		return err
	}

	searcher, err := search.New(search.Config{
		URL:     cfg.Search.URL,
		Timeout: cfg.Search.Timeout,
	})
	if err != nil {
		return fmt.Errorf("creating search client: %w", err)
	}

	adapterCfg := transporthttp.DefaultConfig()
	if cfg.Observability.Metrics.Enabled {
		adapterCfg.MetricsPath = cfg.Observability.Metrics.Path
	} else {
		adapterCfg.MetricsPath = ""
	}

	adapter := transporthttp.NewAdapter(chain, store, searcher, adapterCfg)
	srv := transporthttp.NewServer(adapter,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithReadTimeout(cfg.Server.ReadTimeout),
		transporthttp.WithWriteTimeout(cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	slog.Info("gateway configured",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"auth", cfg.Auth.Type,
		"header", cfg.Auth.Header,
		"search_url", cfg.Search.URL,
		"metrics", adapterCfg.MetricsPath,
	)

	return srv.ListenAndServeContext(ctx)
}

// newStore opens the configured credential store.
func newStore(ctx context.Context, cfg config.StorageConfig) (credential.Store, error) {
	switch cfg.Type {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
			Table:          cfg.Postgres.Table,
			IDColumn:       cfg.Postgres.IDColumn,
			SecretColumn:   cfg.Postgres.SecretColumn,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("credential store enabled", "type", "postgres")
		return store, nil

	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		slog.Info("credential store enabled", "type", "sqlite", "path", cfg.SQLite.Path)
		return store, nil

	default:
		records := make([]credential.Record, 0, len(cfg.Credentials))
		for _, c := range cfg.Credentials {
			records = append(records, credential.Record{ID: c.ID, HashedSecret: c.Hash})
		}
		slog.Info("credential store enabled", "type", "memory", "records", len(records))
		return memory.New(records), nil
	}
}

// newAuthChain builds the request gate's authenticator chain.
func newAuthChain(cfg config.AuthConfig, store credential.Store) (*auth.AuthChain, error) {
	switch cfg.Type {
	case "none":
		slog.Warn("authentication disabled, all requests are accepted")
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{&noop.Authenticator{}},
			DefaultDecision: auth.No,
		}, nil

	case "apikey":
		verifier := apikey.NewVerifier(store, apikey.WithStoreTimeout(cfg.StoreTimeout))
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{apikey.New(verifier, cfg.Header)},
			DefaultDecision: auth.No,
		}, nil

	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}
}
