package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ticketshop/internal/config"
	"ticketshop/internal/middleware"
)

// NewRouter wires all handlers onto a gin engine
func NewRouter(cfg *config.Config, logger *zap.Logger, orders *OrderHandler, ticketTypes *TicketTypeHandler, seats *SeatHandler, health *HealthHandler) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(cors.Default())
	router.Use(middleware.Auth(cfg.Auth.JWTSecret))

	router.GET("/health", health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/tickettypes", ticketTypes.ListTicketTypes)
	router.GET("/tickettypes/:id", ticketTypes.GetTicketType)
	router.GET("/tickettypes/:id/availability", ticketTypes.GetAvailability)
	router.GET("/ticketoptions", ticketTypes.ListOptions)

	router.POST("/orders", orders.CreateOrder)
	router.GET("/orders/:id", orders.GetOrder)
	router.GET("/orders/:id/status", orders.GetOrderStatus)
	router.POST("/orders/:id/tickets", orders.AddTicket)
	router.DELETE("/orders/:id/tickets/:ticketId", orders.RemoveTicket)
	router.POST("/orders/:id/checkout", orders.Checkout)
	router.POST("/orders/status", orders.PaymentWebhook)

	router.GET("/seats/:group", seats.ListGroup)

	authenticated := router.Group("/", middleware.RequireUser())
	{
		authenticated.POST("/orders/:id/assign", orders.AssignOrder)
		authenticated.POST("/seats/:group/:number/reserve", seats.Reserve)
	}

	admin := router.Group("/admin", middleware.RequireUser(), middleware.RequireAdmin())
	{
		admin.POST("/tickettypes", ticketTypes.CreateTicketType)
		admin.PUT("/tickettypes/:id", ticketTypes.UpdateTicketType)
		admin.POST("/ticketoptions", ticketTypes.CreateOption)
		admin.POST("/orders/:id/approve", orders.ApproveOrder)
		admin.POST("/orders/giveaway", orders.Giveaway)
		admin.POST("/seats", seats.AddSeats)
		admin.DELETE("/seats/:group/:number", seats.Clear)
		admin.PUT("/seats/:group/:number/lock", seats.SetLocked)
	}

	return router
}
