package handlers

import (
	"time"

	"canteen/internal/logging"
	"canteen/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// AuthHandler handles HTTP requests for registration and login.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	loginLimit  int
}

// NewAuthHandler creates a new AuthHandler. loginLimit caps login attempts
// per client IP per minute; zero disables the limiter.
func NewAuthHandler(authService *services.AuthService, loginLimit int) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    newValidator(),
		loginLimit:  loginLimit,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/register", h.HandleRegister)
	if h.loginLimit > 0 {
		router.Post("/login", limiter.New(limiter.Config{
			Max:        h.loginLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return fail(c, fiber.StatusTooManyRequests, "Too many login attempts, try again later", nil)
			},
		}), h.HandleLogin)
		return
	}
	router.Post("/login", h.HandleLogin)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// HandleRegister handles new user registration. Self-registered users
// always get the default role.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	if _, err := h.authService.RegisterUser(c.UserContext(), req.Name, req.Email, req.Password); err != nil {
		logging.FromContext(c.UserContext()).Warn("registration failed", "error", err)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ok":      true,
		"message": "User registered successfully",
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin checks credentials and returns the user record. No session
// or token is issued.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(user)
}
