package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ticketshop/internal/models"
	"ticketshop/internal/services"
)

// TicketTypeHandler handles catalog HTTP requests
type TicketTypeHandler struct {
	catalog   *services.CatalogService
	allocator *services.AllocatorService
}

// NewTicketTypeHandler creates a new ticket type handler
func NewTicketTypeHandler(catalog *services.CatalogService, allocator *services.AllocatorService) *TicketTypeHandler {
	return &TicketTypeHandler{catalog: catalog, allocator: allocator}
}

// ListTicketTypes handles GET /tickettypes
func (h *TicketTypeHandler) ListTicketTypes(c *gin.Context) {
	ticketTypes, err := h.catalog.ListTicketTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticketTypes)
}

// GetTicketType handles GET /tickettypes/:id
func (h *TicketTypeHandler) GetTicketType(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket type id"})
		return
	}

	ticketType, err := h.catalog.GetTicketType(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticketType)
}

// GetAvailability handles GET /tickettypes/:id/availability
func (h *TicketTypeHandler) GetAvailability(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket type id"})
		return
	}

	availability, err := h.allocator.Availability(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, availability)
}

// CreateTicketType handles POST /tickettypes
func (h *TicketTypeHandler) CreateTicketType(c *gin.Context) {
	var req models.TicketTypeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticketType, err := h.catalog.CreateTicketType(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ticketType)
}

// UpdateTicketType handles PUT /tickettypes/:id
func (h *TicketTypeHandler) UpdateTicketType(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket type id"})
		return
	}

	var req models.TicketTypeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticketType, err := h.catalog.UpdateTicketType(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticketType)
}

// ListOptions handles GET /ticketoptions
func (h *TicketTypeHandler) ListOptions(c *gin.Context) {
	options, err := h.catalog.ListOptions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, options)
}

// CreateOption handles POST /ticketoptions
func (h *TicketTypeHandler) CreateOption(c *gin.Context) {
	var req models.TicketOptionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	option, err := h.catalog.CreateOption(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, option)
}
