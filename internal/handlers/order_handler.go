package handlers

import (
	"canteen/internal/models"
	"canteen/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
// Routes are open: there is no authorization layer.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Put("/:id", h.HandleUpdateOrderStatus)

	router.Get("/users/:id/orders", h.HandleGetUserOrders)
}

// PlaceOrderRequest represents the request body for placing an order.
// Items are taken as given; they are not checked against a menu.
type PlaceOrderRequest struct {
	UserID   uint               `json:"user_id" validate:"required"`
	FullName string             `json:"fullname" validate:"required,max=200"`
	Contact  string             `json:"contact" validate:"required,max=100"`
	Location string             `json:"location" validate:"required,max=255"`
	Items    []models.OrderItem `json:"items" validate:"required,min=1"`
	Total    float64            `json:"total" validate:"gte=0"`
}

// UpdateStatusRequest represents the request body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleGetOrders retrieves all orders, newest first.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "Invalid order ID", nil)
	}
	order, err := h.service.GetOrderByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleGetUserOrders retrieves the orders placed by one user.
func (h *OrderHandler) HandleGetUserOrders(c *fiber.Ctx) error {
	userID, ok := parseID(c, "id")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID", nil)
	}
	orders, err := h.service.GetUserOrders(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleCreateOrder places a new order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req PlaceOrderRequest
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	order, err := h.service.PlaceOrder(c.UserContext(), services.PlaceOrderInput{
		UserID:   req.UserID,
		FullName: req.FullName,
		Contact:  req.Contact,
		Location: req.Location,
		Items:    req.Items,
		Total:    req.Total,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ok":      true,
		"message": "Order placed successfully",
		"order":   order,
	})
}

// HandleUpdateOrderStatus moves an order to a new status and returns the
// updated order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "Invalid order ID", nil)
	}
	var req UpdateStatusRequest
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}
