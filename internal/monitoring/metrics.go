package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicketsAllocated counts successful ticket allocations by ticket type.
	TicketsAllocated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketshop_tickets_allocated_total",
		Help: "Total number of tickets allocated, by ticket type",
	}, []string{"ticket_type"})

	// AllocationFailures counts failed allocations by failure reason.
	AllocationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketshop_allocation_failures_total",
		Help: "Total number of failed ticket allocations, by reason",
	}, []string{"reason"})

	// OrderTransitions counts order state machine transitions.
	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketshop_order_transitions_total",
		Help: "Total number of order status transitions, by target status",
	}, []string{"status"})

	// OrdersExpired counts orders reclaimed by the expiry sweep.
	OrdersExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketshop_orders_expired_total",
		Help: "Total number of orders reclaimed by the expiry sweep",
	})

	// SeatReservations counts seat reservation attempts by outcome.
	SeatReservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketshop_seat_reservations_total",
		Help: "Total number of seat reservation attempts, by outcome",
	}, []string{"outcome"})

	// PaymentGatewayDuration observes payment provider round trip latency.
	PaymentGatewayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ticketshop_payment_gateway_duration_seconds",
		Help:    "Payment provider request latency in seconds, by operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// WebhookCallbacks counts payment webhook callbacks by handling result.
	WebhookCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketshop_webhook_callbacks_total",
		Help: "Total number of payment webhook callbacks, by result",
	}, []string{"result"})
)
