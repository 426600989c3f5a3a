package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"canteen/internal/server"
	"canteen/internal/services"
	"canteen/pkg/rabbitmq"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, logger, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	logger.Info("starting canteen", "config", cfg.String())

	gw, err := openStore(ctx, cfg, logger)
	if gw == nil {
		return err
	}
	defer func() {
		if err := gw.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()
	if err != nil {
		// Keep serving: /health reports the store as disconnected.
		logger.Warn("database not ready at startup", "error", err)
	} else {
		logDiagnostics(ctx, gw, logger)
	}

	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Logger: logger})
		if err != nil {
			logger.Warn("order events disabled", "error", err)
		} else {
			defer mqClient.Close()
			publisher = mqClient
		}
	} else {
		logger.Info("RABBITMQ_URL not set, order events disabled")
	}

	app := server.New(server.Options{
		Config:    cfg,
		Gateway:   gw,
		Publisher: publisher,
		Logger:    logger,
		AccessLog: logWriter(cmd),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Port)
		listenErr <- app.Listen(cfg.Port)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("error during shutdown", "error", err)
	}
	logger.Info("server gracefully stopped")
	return nil
}
