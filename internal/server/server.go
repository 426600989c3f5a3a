// Package server assembles the fiber application: middleware, handlers and
// the services behind them.
package server

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"canteen/internal/config"
	"canteen/internal/database"
	"canteen/internal/handlers"
	"canteen/internal/logging"
	"canteen/internal/metrics"
	"canteen/internal/middleware"
	"canteen/internal/repositories"
	"canteen/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Options configures New.
type Options struct {
	Config  *config.Config
	Gateway *database.Gateway
	// Publisher receives order events; nil disables them.
	Publisher services.EventPublisher
	Logger    *slog.Logger
	// AccessLog receives the access log lines. Defaults to stdout.
	AccessLog io.Writer
}

// New builds the HTTP application.
func New(opts Options) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AccessLog == nil {
		opts.AccessLog = os.Stdout
	}
	cfg := opts.Config

	userRepo := repositories.NewGORMUserRepository(opts.Gateway)
	orderRepo := repositories.NewGORMOrderRepository(opts.Gateway)

	authService := services.NewAuthService(userRepo)
	orderService := services.NewOrderService(orderRepo, opts.Publisher)

	app := fiber.New(fiber.Config{
		AppName:               "canteen",
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler:          errorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
		Output: opts.AccessLog,
	}))
	app.Use(cors.New())
	app.Use(middleware.ContextLogger(opts.Logger))
	app.Use(metrics.Middleware())

	handlers.NewHealthHandler(opts.Gateway).RegisterRoutes(app)
	handlers.NewAuthHandler(authService, cfg.LoginRateLimit).RegisterRoutes(app)
	handlers.NewOrderHandler(orderService).RegisterRoutes(app)
	handlers.NewPageHandler(cfg.TemplatesDir, cfg.StaticDir).RegisterRoutes(app)
	app.Get("/metrics", metrics.Handler())

	app.Use(handlers.NotFound)

	return app
}

// errorHandler renders errors that escape the handlers, including
// recovered panics, in the same JSON shape the handlers use.
func errorHandler(base *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			logging.FromContext(c.UserContext()).Error("unhandled error", "path", c.Path(), "error", err)
		} else {
			base.Debug("request rejected", "path", c.Path(), "status", code, "error", err)
		}

		return c.Status(code).JSON(fiber.Map{
			"ok":      false,
			"message": message,
		})
	}
}
