package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/imagefeed/imagefeed-core/internal/adapters/driven/auth"
	"github.com/imagefeed/imagefeed-core/internal/adapters/driven/memory"
	"github.com/imagefeed/imagefeed-core/internal/adapters/driven/postgres"
	redisadapter "github.com/imagefeed/imagefeed-core/internal/adapters/driven/redis"
	"github.com/imagefeed/imagefeed-core/internal/adapters/driven/sqlite"
	"github.com/imagefeed/imagefeed-core/internal/adapters/driving/http"
	"github.com/imagefeed/imagefeed-core/internal/config"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
	"github.com/imagefeed/imagefeed-core/internal/core/services"
)

func newDevAuthCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "devauth",
		Short: "Run a local authorization server that answers with native redirects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.validated()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.DevHost = host
			}
			if cmd.Flags().Changed("port") {
				cfg.DevPort = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runDevAuth(ctx, cfg, a.logger)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides dev_host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides dev_port)")
	return cmd
}

func runDevAuth(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, closer, err := openCodeStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	issuer := auth.NewAdapter(cfg.DevJWTSecret)
	secretHash := cfg.DevClientSecretHash
	if secretHash == "" {
		if secretHash, err = issuer.HashSecret(cfg.SecretKey); err != nil {
			return fmt.Errorf("hash client secret: %w", err)
		}
	}

	devAuth := services.NewDevAuthService(services.DevAuthServiceConfig{
		Issuer: issuer,
		Store:  store,
		Clients: map[string]services.ClientRegistration{
			cfg.AccessKey: {SecretHash: secretHash},
		},
		BaseURL: fmt.Sprintf("http://%s:%d", cfg.DevHost, cfg.DevPort),
		Logger:  logger,
	})

	janitor := services.NewJanitor(services.JanitorConfig{Cleaner: devAuth, Logger: logger})
	janitor.Start(ctx)
	defer janitor.Stop()

	server := http.NewServer(http.Config{
		Host:    cfg.DevHost,
		Port:    cfg.DevPort,
		Version: version,
	}, devAuth, store, logger)

	logger.Info("development authorization server ready",
		"authorize_url", fmt.Sprintf("http://%s/oauth/authorize", server.Addr()),
		"token_url", fmt.Sprintf("http://%s/oauth/token", server.Addr()),
	)
	return server.Run(ctx)
}

// openCodeStore picks Redis, then the database named by database_url
// (SQLite for file paths, PostgreSQL otherwise), then process memory.
func openCodeStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (driven.AuthorizationCodeStore, io.Closer, error) {
	switch {
	case cfg.RedisURL != "":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("using redis code store")
		return redisadapter.NewCodeStore(client), client, nil

	case cfg.DatabaseURL != "" && sqlite.IsPath(cfg.DatabaseURL):
		store, err := sqlite.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite code store", "path", cfg.DatabaseURL)
		return store, store, nil

	case cfg.DatabaseURL != "":
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, err
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("using postgres code store")
		return postgres.NewCodeStore(db.DB), db, nil

	default:
		logger.Warn("no redis_url or database_url set, codes are kept in memory")
		return memory.NewCodeStore(), nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
