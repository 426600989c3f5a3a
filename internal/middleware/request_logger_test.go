package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"canteen/internal/logging"
	"canteen/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextLogger_CarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := logging.New(&buf, "info", true)

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(middleware.ContextLogger(base))
	app.Get("/probe", func(c *fiber.Ctx) error {
		logging.FromContext(c.UserContext()).Info("inside handler")
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"path":"/probe"`)
	assert.Contains(t, buf.String(), "inside handler")
}
