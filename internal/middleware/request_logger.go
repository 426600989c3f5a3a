package middleware

import (
	"fmt"
	"log/slog"

	"canteen/internal/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// ContextLogger attaches a logger carrying the request id to the request's
// user context, so services can log with logging.FromContext. It must run
// after the requestid middleware.
func ContextLogger(base *slog.Logger) fiber.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(c *fiber.Ctx) error {
		rid := fmt.Sprint(c.Locals(requestid.ConfigDefault.ContextKey))
		if rid == "<nil>" {
			rid = c.GetRespHeader(fiber.HeaderXRequestID)
		}
		logger := base.With(
			"request_id", rid,
			"method", c.Method(),
			"path", c.Path(),
		)
		c.SetUserContext(logging.IntoContext(c.UserContext(), logger))
		return c.Next()
	}
}
