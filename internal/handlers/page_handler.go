package handlers

import (
	"os"
	"path/filepath"

	"canteen/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// pages maps each public route to its HTML file.
var pages = map[string]string{
	"/":               "home.html",
	"/home.html":      "home.html",
	"/index.html":     "index.html",
	"/register.html":  "register.html",
	"/order.html":     "order.html",
	"/orders.html":    "orders.html",
	"/profile.html":   "profile.html",
	"/admin.html":     "admin.html",
	"/adminmenu.html": "adminmenu.html",
}

// PageHandler serves the pre-built HTML pages and static assets.
type PageHandler struct {
	templatesDir string
	staticDir    string
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(templatesDir, staticDir string) *PageHandler {
	return &PageHandler{
		templatesDir: templatesDir,
		staticDir:    staticDir,
	}
}

// RegisterRoutes registers the page routes and the /static mount.
func (h *PageHandler) RegisterRoutes(router fiber.Router) {
	for route, file := range pages {
		router.Get(route, h.servePage(file))
	}
	router.Static("/static", h.staticDir, fiber.Static{
		Browse: false,
	})
}

func (h *PageHandler) servePage(file string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := filepath.Join(h.templatesDir, file)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			logging.FromContext(c.UserContext()).Warn("page asset missing", "page", file, "dir", h.templatesDir)
			return NotFound(c)
		}
		return c.SendFile(path)
	}
}

// NotFound writes the structured 404 used for unknown routes and missing
// assets.
func NotFound(c *fiber.Ctx) error {
	return fail(c, fiber.StatusNotFound, "page not found", nil)
}
