package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"canteen/internal/database"
	"canteen/internal/logging"
	"canteen/internal/models"
	"canteen/internal/repositories"
	"canteen/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error to a status code and a JSON body.
// Store error text is logged but never sent to the client.
func respondError(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return validationFailed(c, verrs)
	case errors.Is(err, repositories.ErrDuplicateEmail):
		return fail(c, fiber.StatusBadRequest, "Email already registered", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		return fail(c, fiber.StatusBadRequest, "Invalid credentials", nil)
	case errors.Is(err, services.ErrOrderNotFound):
		return fail(c, fiber.StatusNotFound, "Order not found", nil)
	case errors.Is(err, services.ErrInvalidStatus):
		return fail(c, fiber.StatusBadRequest, "Invalid order status", fiber.Map{
			"allowed": models.AllStatuses(),
		})
	case errors.Is(err, services.ErrInvalidTransition):
		extra := fiber.Map{"error": err.Error()}
		var terr *services.TransitionError
		if errors.As(err, &terr) {
			extra["allowed"] = terr.From.NextStatuses()
		}
		return fail(c, fiber.StatusConflict, "Status transition not allowed", extra)
	case errors.Is(err, database.ErrConnection):
		logging.FromContext(c.UserContext()).Error("store unavailable", "path", c.Path(), "error", err)
		return fail(c, fiber.StatusServiceUnavailable, "Database unavailable", nil)
	default:
		logging.FromContext(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Internal server error", nil)
	}
}

func fail(c *fiber.Ctx, status int, message string, extra fiber.Map) error {
	body := fiber.Map{
		"ok":      false,
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func validationFailed(c *fiber.Ctx, verrs validator.ValidationErrors) error {
	errorMessages := make(map[string]string, len(verrs))
	for _, e := range verrs {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return fail(c, fiber.StatusBadRequest, "Validation failed", fiber.Map{
		"errors": errorMessages,
	})
}

// bindAndValidate parses the JSON body into req and runs its struct tags.
// It reports false once a 400 response has been written.
func bindAndValidate(c *fiber.Ctx, v *validator.Validate, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		logging.FromContext(c.UserContext()).Debug("invalid request body", "path", c.Path(), "error", err)
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return false, fail(c, fiber.StatusBadRequest, "Invalid request body", fiber.Map{
				"errors": map[string]string{
					typeErr.Field: fmt.Sprintf("Field '%s' has the wrong type", typeErr.Field),
				},
			})
		}
		return false, fail(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := v.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return false, validationFailed(c, verrs)
		}
		return false, fail(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	return true, nil
}

// parseID reads a positive numeric route parameter.
func parseID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// newValidator returns a validator that reports JSON field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}
