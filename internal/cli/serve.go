package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskflow/internal/auth"
	"taskflow/internal/config"
	"taskflow/internal/server"
	"taskflow/internal/storage"
	"taskflow/internal/storage/postgres"
	"taskflow/internal/storage/sqlite"
)

// publicSecrets are signing keys that appear in docs and sample configs.
var publicSecrets = map[string]struct{}{
	"":          {},
	"change-me": {},
	"secret":    {},
}

func (a *app) serveCommand() *cobra.Command {
	var addr, dbPath, staticDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the TaskFlow backend",
		Long: `Run the HTTP backend.

Tasks are stored in PostgreSQL when DATABASE_URL (server.database_url) is set
and in a SQLite file otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.cfg.Server
			if cmd.Flags().Changed("addr") {
				s.Addr = addr
			}
			if cmd.Flags().Changed("db") {
				s.DBPath = dbPath
			}
			if cmd.Flags().Changed("static") {
				s.StaticDir = staticDir
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.runServer(ctx, s)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to sqlite database file")
	cmd.Flags().StringVar(&staticDir, "static", "", "Directory with the frontend pages")
	return cmd
}

// openStore picks PostgreSQL when a URL is configured, SQLite otherwise.
func openStore(ctx context.Context, s config.ServerConfig, logger *slog.Logger) (storage.Store, error) {
	if s.DatabaseURL != "" {
		logger.Info("using postgres storage")
		store, err := postgres.Open(ctx, s.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	logger.Info("using sqlite storage", slog.String("path", s.DBPath))
	store, err := sqlite.Open(s.DBPath, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// signingSecret returns the configured token key, or a random one when the
// key is unset or publicly known. Tokens signed with a random key stop
// validating when the process exits.
func signingSecret(configured string, logger *slog.Logger) (string, error) {
	if _, public := publicSecrets[configured]; !public {
		return configured, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	logger.Warn("SECRET_KEY is unset or well known; signing tokens with a random per-process key")
	return hex.EncodeToString(buf), nil
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func (a *app) runServer(ctx context.Context, s config.ServerConfig) error {
	logger := a.logger
	logger.Info("TaskFlow server starting", slog.String("addr", s.Addr))

	store, err := openStore(ctx, s, logger)
	if err != nil {
		return fmt.Errorf("unable to open database: %w", err)
	}
	defer store.Close()

	secret, err := signingSecret(s.SecretKey, logger)
	if err != nil {
		return err
	}
	s.SecretKey = secret
	if err := server.SeedAdmin(ctx, store, s.AdminEmail, s.AdminPassword, logger); err != nil {
		return err
	}

	tokens := auth.NewTokenManager(auth.TokenConfig{SecretKey: s.SecretKey, TTL: s.TokenTTL, Issuer: "taskflow"})
	srv := server.New(store, tokens, server.Config{
		StaticDir:       s.StaticDir,
		AdminPassword:   s.AdminPassword,
		AdminSessionTTL: s.AdminSessionTTL,
		SecureCookies:   s.SecureCookies,
	}, logger)

	httpServer := &http.Server{
		Addr:              s.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped unexpectedly: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return nil
}
