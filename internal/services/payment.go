package services

import (
	"context"

	"ticketshop/internal/models"
)

// Provider payment statuses as reported by the gateway.
const (
	ProviderStatusOpen     = "open"
	ProviderStatusPending  = "pending"
	ProviderStatusPaid     = "paid"
	ProviderStatusCanceled = "canceled"
	ProviderStatusExpired  = "expired"
	ProviderStatusFailed   = "failed"
)

// PaymentService talks to the payment provider. Implementations must not
// hold database locks; callers reconcile the returned status separately.
type PaymentService interface {
	// RegisterOrder registers an order with the provider and returns the
	// provider reference and the URL the buyer completes payment at.
	RegisterOrder(ctx context.Context, order *models.Order, amount int) (reference, paymentURL string, err error)

	// UpdateStatus fetches the current provider status for a reference.
	UpdateStatus(ctx context.Context, reference string) (string, error)

	// PaymentURL returns the checkout URL for an already registered payment.
	PaymentURL(ctx context.Context, reference string) (string, error)
}

// MapProviderStatus translates a provider payment status into an order
// status. The second return is false for statuses the state machine has no
// answer for; callers log and ignore those.
func MapProviderStatus(status string) (models.OrderStatus, bool) {
	switch status {
	case ProviderStatusOpen, ProviderStatusPending:
		return models.OrderPending, true
	case ProviderStatusPaid:
		return models.OrderPaid, true
	case ProviderStatusCanceled, ProviderStatusFailed:
		return models.OrderCancelled, true
	case ProviderStatusExpired:
		return models.OrderExpired, true
	default:
		return "", false
	}
}
