package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"canteen/internal/config"
	"canteen/internal/database"
	"canteen/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:           "canteen",
		Short:         "Canteen ordering backend",
		Long:          "Canteen serves registration, login and order management over HTTP. Without a subcommand it runs the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.AddCommand(serve)
	root.AddCommand(newCheckCmd())
	root.AddCommand(newCreateAdminCmd())
	root.AddCommand(newWatchOrdersCmd())
	return root
}

// bootstrap loads configuration and builds the logger every command uses.
// Logs go to the command's error stream so command output stays clean.
func bootstrap(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.New(logWriter(cmd), cfg.LogLevel, cfg.IsProduction())
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", "config", cfg.String())
	return cfg, logger, nil
}

func logWriter(cmd *cobra.Command) io.Writer {
	return cmd.ErrOrStderr()
}

func gatewayConfig(cfg *config.Config, logger *slog.Logger) database.Config {
	return database.Config{
		URL:          cfg.Database.URL,
		Policy:       database.Policy(cfg.Database.PoolPolicy),
		MaxOpenConns: cfg.Database.MaxOpenConns,
		QueryTimeout: cfg.Database.QueryTimeout,
		Logger:       logger,
	}
}

// openStore opens the gateway and creates missing tables. An unreachable
// store still yields a gateway together with the error.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.Gateway, error) {
	gw, err := database.Open(ctx, gatewayConfig(cfg, logger))
	if err != nil {
		return gw, err
	}
	if err := gw.Migrate(ctx); err != nil {
		return gw, err
	}
	return gw, nil
}

// logDiagnostics reports table sizes and a few users at startup. Failures
// are warnings only.
func logDiagnostics(ctx context.Context, gw *database.Gateway, logger *slog.Logger) {
	stats, err := gw.Stats(ctx)
	if err != nil {
		logger.Warn("startup diagnostics failed", "error", err)
		return
	}
	pool := gw.PoolStats()
	logger.Info("database ready",
		"policy", gw.Policy(),
		"max_open_conns", pool.MaxOpenConnections,
		"open_conns", pool.OpenConnections,
		"users", stats.Users,
		"orders", stats.Orders,
	)
	for _, u := range stats.SampleUsers {
		logger.Info("sample user", "id", u.ID, "name", u.Name, "email", u.Email, "role", u.Role)
	}
}
