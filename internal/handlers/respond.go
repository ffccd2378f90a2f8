package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ticketshop/internal/models"
)

// respondError maps domain errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	var unavailable *models.TicketUnavailableError
	var unsupported *models.OptionNotSupportedError
	var immutable *models.ImmutableOrderError
	var unassigned *models.UnassignedOrderError
	var empty *models.EmptyOrderError
	var full *models.OrderFullError
	var changed *models.OrderChangedError
	var taken *models.SeatTakenError
	var locked *models.SeatLockedError
	var invalidTicket *models.InvalidTicketError
	var unreachable *models.PaymentUnreachableError
	var rejected *models.PaymentError

	switch {
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrTicketNotFound),
		errors.Is(err, models.ErrTicketTypeNotFound),
		errors.Is(err, models.ErrOptionNotFound),
		errors.Is(err, models.ErrSeatNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.As(err, &unavailable),
		errors.As(err, &immutable),
		errors.As(err, &full),
		errors.As(err, &changed),
		errors.As(err, &taken),
		errors.As(err, &locked),
		errors.As(err, &unassigned):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.As(err, &unsupported),
		errors.As(err, &empty),
		errors.As(err, &invalidTicket),
		errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.As(err, &unreachable),
		errors.As(err, &rejected):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
