package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CallbackGuard deduplicates payment webhook callbacks across instances
// using a short-lived Redis claim per reference. Reconciliation itself is
// idempotent, so the guard only suppresses redundant provider round trips;
// if Redis is down, callbacks pass through.
type CallbackGuard struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCallbackGuard creates a new callback guard
func NewCallbackGuard(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CallbackGuard {
	return &CallbackGuard{client: client, ttl: ttl, logger: logger}
}

// ShouldProcess reports whether this callback for the reference is the
// first within the dedupe window
func (g *CallbackGuard) ShouldProcess(ctx context.Context, reference string) bool {
	claimed, err := g.client.SetNX(ctx, "webhook:"+reference, 1, g.ttl).Result()
	if err != nil {
		g.logger.Warn("webhook dedupe unavailable",
			zap.String("reference", reference),
			zap.Error(err))
		return true
	}
	return claimed
}

// Release drops the claim so a follow-up callback is processed immediately.
// Used when reconciliation fails and the provider should retry.
func (g *CallbackGuard) Release(ctx context.Context, reference string) {
	if err := g.client.Del(ctx, "webhook:"+reference).Err(); err != nil {
		g.logger.Warn("webhook dedupe release failed",
			zap.String("reference", reference),
			zap.Error(err))
	}
}
