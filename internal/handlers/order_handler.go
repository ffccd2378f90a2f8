package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ticketshop/internal/middleware"
	"ticketshop/internal/monitoring"
	"ticketshop/internal/services"
)

// OrderHandler handles order lifecycle HTTP requests
type OrderHandler struct {
	orders *services.OrderService
	guard  *services.CallbackGuard
	logger *zap.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *services.OrderService, guard *services.CallbackGuard, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, guard: guard, logger: logger}
}

// CreateOrderRequest represents an order creation request
type CreateOrderRequest struct {
	TicketTypeID int   `json:"ticket_type_id" binding:"required"`
	OptionIDs    []int `json:"option_ids"`
}

// AddTicketRequest represents a ticket addition request
type AddTicketRequest struct {
	TicketTypeID int   `json:"ticket_type_id" binding:"required"`
	OptionIDs    []int `json:"option_ids"`
}

// GiveawayRequest represents an admin giveaway request
type GiveawayRequest struct {
	UserID       int   `json:"user_id" binding:"required"`
	TicketTypeID int   `json:"ticket_type_id" binding:"required"`
	OptionIDs    []int `json:"option_ids"`
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), req.TicketTypeID, req.OptionIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Location", "/orders/"+strconv.Itoa(order.ID))
	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetOrderStatus handles GET /orders/:id/status. Reconciles against the
// payment provider before answering, so polling clients see the
// authoritative state.
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.orders.SyncStatus(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// AddTicket handles POST /orders/:id/tickets
func (h *OrderHandler) AddTicket(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req AddTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ticket, err := h.orders.AddTicket(c.Request.Context(), orderID, req.TicketTypeID, req.OptionIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

// RemoveTicket handles DELETE /orders/:id/tickets/:ticketId
func (h *OrderHandler) RemoveTicket(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	ticketID, err := strconv.Atoi(c.Param("ticketId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}

	if err := h.orders.RemoveTicket(c.Request.Context(), orderID, ticketID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AssignOrder handles POST /orders/:id/assign
func (h *OrderHandler) AssignOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	order, err := h.orders.AssignToUser(c.Request.Context(), orderID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// Checkout handles POST /orders/:id/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	paymentURL, err := h.orders.RequestPayment(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_url": paymentURL})
}

// PaymentWebhook handles POST /orders/status. The provider sends the
// payment reference as a form field or query parameter and polls our
// response code; the body never leaks order state. Always answers 200 so
// the provider stops retrying. A failed reconcile releases the dedupe
// claim and waits for the next callback or a manual reconcile.
func (h *OrderHandler) PaymentWebhook(c *gin.Context) {
	reference := c.PostForm("id")
	if reference == "" {
		reference = c.Query("id")
	}
	if reference == "" {
		monitoring.WebhookCallbacks.WithLabelValues("malformed").Inc()
		c.Status(http.StatusOK)
		return
	}

	if !h.guard.ShouldProcess(c.Request.Context(), reference) {
		monitoring.WebhookCallbacks.WithLabelValues("duplicate").Inc()
		c.Status(http.StatusOK)
		return
	}

	if _, err := h.orders.Reconcile(c.Request.Context(), reference); err != nil {
		h.guard.Release(c.Request.Context(), reference)
		monitoring.WebhookCallbacks.WithLabelValues("failed").Inc()
		h.logger.Error("webhook reconcile failed",
			zap.String("reference", reference),
			zap.Error(err))
		c.Status(http.StatusOK)
		return
	}

	monitoring.WebhookCallbacks.WithLabelValues("processed").Inc()
	c.Status(http.StatusOK)
}

// ApproveOrder handles POST /orders/:id/approve
func (h *OrderHandler) ApproveOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.orders.Approve(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// Giveaway handles POST /orders/giveaway
func (h *OrderHandler) Giveaway(c *gin.Context) {
	var req GiveawayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.orders.Giveaway(c.Request.Context(), req.UserID, req.TicketTypeID, req.OptionIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}
