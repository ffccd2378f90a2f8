package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ticketshop/internal/models"
	"ticketshop/internal/services"
)

// SeatHandler handles seat map HTTP requests
type SeatHandler struct {
	seats *services.SeatService
}

// NewSeatHandler creates a new seat handler
func NewSeatHandler(seats *services.SeatService) *SeatHandler {
	return &SeatHandler{seats: seats}
}

// ReserveSeatRequest represents a seat reservation request
type ReserveSeatRequest struct {
	TicketID int  `json:"ticket_id" binding:"required"`
	Override bool `json:"override"`
}

// LockSeatRequest represents a seat lock change request
type LockSeatRequest struct {
	Locked bool `json:"locked"`
}

// seatPosition parses the group and number path parameters
func seatPosition(c *gin.Context) (string, int, bool) {
	group := c.Param("group")
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seat number"})
		return "", 0, false
	}
	return group, number, true
}

// ListGroup handles GET /seats/:group
func (h *SeatHandler) ListGroup(c *gin.Context) {
	seats, err := h.seats.ListGroup(c.Request.Context(), c.Param("group"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, seats)
}

// Reserve handles POST /seats/:group/:number/reserve
func (h *SeatHandler) Reserve(c *gin.Context) {
	group, number, ok := seatPosition(c)
	if !ok {
		return
	}

	var req ReserveSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	seat, err := h.seats.Reserve(c.Request.Context(), group, number, req.TicketID, req.Override)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, seat)
}

// Clear handles DELETE /seats/:group/:number
func (h *SeatHandler) Clear(c *gin.Context) {
	group, number, ok := seatPosition(c)
	if !ok {
		return
	}

	if err := h.seats.Clear(c.Request.Context(), group, number); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetLocked handles PUT /seats/:group/:number/lock
func (h *SeatHandler) SetLocked(c *gin.Context) {
	group, number, ok := seatPosition(c)
	if !ok {
		return
	}

	var req LockSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	seat, err := h.seats.SetLocked(c.Request.Context(), group, number, req.Locked)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, seat)
}

// AddSeats handles POST /seats
func (h *SeatHandler) AddSeats(c *gin.Context) {
	var req models.SeatGroupCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seats, err := h.seats.AddSeats(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, seats)
}
