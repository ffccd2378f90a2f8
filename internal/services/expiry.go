package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ticketshop/internal/config"
)

// ExpiryService periodically reclaims orders that outlived the keep-alive
// window without reaching pending or paid
type ExpiryService struct {
	orders   *OrderService
	sales    config.SalesConfig
	logger   *zap.Logger
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewExpiryService creates a new expiry service
func NewExpiryService(orders *OrderService, sales config.SalesConfig, logger *zap.Logger) *ExpiryService {
	return &ExpiryService{
		orders: orders,
		sales:  sales,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the background sweep loop
func (s *ExpiryService) Start() {
	go s.run()
}

// Stop shuts the sweep loop down and waits for a running sweep to finish
func (s *ExpiryService) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *ExpiryService) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.sales.SweepInterval)
	defer ticker.Stop()

	s.logger.Info("expiry sweep started",
		zap.Duration("interval", s.sales.SweepInterval),
		zap.Duration("keep_alive", s.sales.OrderKeepAlive))

	for {
		select {
		case <-s.stop:
			s.logger.Info("expiry sweep stopped")
			return
		case <-ticker.C:
			s.Sweep(context.Background())
		}
	}
}

// Sweep expires every reclaimable order older than the keep-alive window.
// Failures on individual orders are logged and do not stop the sweep.
func (s *ExpiryService) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.sales.OrderKeepAlive)

	expirable, err := s.orders.orders.FindExpirable(ctx, cutoff)
	if err != nil {
		s.logger.Error("expiry sweep query failed", zap.Error(err))
		return
	}
	if len(expirable) == 0 {
		return
	}

	expired := 0
	for _, order := range expirable {
		if err := s.orders.Expire(ctx, order.ID); err != nil {
			// The order may have transitioned since the query; skip it.
			s.logger.Warn("order expiry skipped",
				zap.Int("order_id", order.ID),
				zap.Error(err))
			continue
		}
		expired++
	}

	s.logger.Info("expiry sweep finished",
		zap.Int("candidates", len(expirable)),
		zap.Int("expired", expired))
}
