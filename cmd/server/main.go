package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ticketshop/internal/config"
	"ticketshop/internal/database"
	"ticketshop/internal/handlers"
	"ticketshop/internal/repositories"
	"ticketshop/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Server.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(database.Config{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	orderRepo := repositories.NewOrderRepository(db.DB)
	ticketRepo := repositories.NewTicketRepository(db.DB)
	ticketTypeRepo := repositories.NewTicketTypeRepository(db.DB)
	seatRepo := repositories.NewSeatRepository(db.DB)

	payment := newPaymentService(cfg, logger)

	orderService := services.NewOrderService(orderRepo, ticketRepo, payment, cfg.Sales, logger)
	catalogService := services.NewCatalogService(ticketTypeRepo, logger)
	allocatorService := services.NewAllocatorService(ticketTypeRepo, ticketRepo, cfg.Sales)
	seatService := services.NewSeatService(seatRepo, logger)
	expiryService := services.NewExpiryService(orderService, cfg.Sales, logger)
	guard := services.NewCallbackGuard(redisClient, time.Minute, logger)

	orderHandler := handlers.NewOrderHandler(orderService, guard, logger)
	ticketTypeHandler := handlers.NewTicketTypeHandler(catalogService, allocatorService)
	seatHandler := handlers.NewSeatHandler(seatService)
	healthHandler := handlers.NewHealthHandler(db.DB)

	router := handlers.NewRouter(cfg, logger, orderHandler, ticketTypeHandler, seatHandler, healthHandler)

	expiryService.Start()

	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	expiryService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}

	logger.Info("server stopped")
}

// newLogger builds a production or development zap logger
func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newPaymentService returns the Mollie client when an API key is
// configured, and the in-memory mock otherwise
func newPaymentService(cfg *config.Config, logger *zap.Logger) services.PaymentService {
	if cfg.Mollie.APIKey != "" {
		return services.NewMolliePaymentService(cfg.Mollie)
	}
	logger.Warn("no payment API key configured, using mock payment service")
	return services.NewMockPaymentService()
}
