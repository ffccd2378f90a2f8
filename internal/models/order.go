package models

import (
	"time"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	// OrderAnonymous is a freshly created order that holds tickets but has no owner yet.
	OrderAnonymous OrderStatus = "anonymous"
	// OrderAssigned has an owner and is still mutable.
	OrderAssigned OrderStatus = "assigned"
	// OrderPending has been handed to the payment provider and is immutable.
	OrderPending OrderStatus = "pending"
	// OrderPaid is terminal; all tickets in the order are valid.
	OrderPaid OrderStatus = "paid"
	// OrderCancelled was abandoned at the payment provider.
	OrderCancelled OrderStatus = "cancelled"
	// OrderExpired was reclaimed; the row lingers until the expiry sweep deletes it.
	OrderExpired OrderStatus = "expired"
)

// Order represents a group of tickets progressing through the payment state machine
type Order struct {
	ID               int         `json:"id" db:"id"`
	Status           OrderStatus `json:"status" db:"status"`
	OwnerID          *int        `json:"owner_id,omitempty" db:"owner_id"`
	PaymentReference string      `json:"payment_reference,omitempty" db:"payment_reference"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`

	// Tickets is populated on detail reads; the order exclusively owns them.
	Tickets []*Ticket `json:"tickets,omitempty"`
}

// ExpiredOrder is the audit record retained after an order is reclaimed
type ExpiredOrder struct {
	ID             int       `json:"id" db:"id"`
	OrderID        int       `json:"order_id" db:"order_id"`
	OwnerID        *int      `json:"owner_id,omitempty" db:"owner_id"`
	TicketCount    int       `json:"ticket_count" db:"ticket_count"`
	OrderCreatedAt time.Time `json:"order_created_at" db:"order_created_at"`
	ExpiredAt      time.Time `json:"expired_at" db:"expired_at"`
}

// orderTransitions is the set of legal state machine edges.
// Terminal paid orders never leave; cancelled/expired orders only
// leave via the expiry sweep, which deletes rather than transitions.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderAnonymous: {OrderAssigned, OrderExpired},
	OrderAssigned:  {OrderPending, OrderCancelled, OrderExpired},
	OrderPending:   {OrderPaid, OrderCancelled, OrderExpired},
	OrderPaid:      {},
	OrderCancelled: {},
	OrderExpired:   {},
}

// CanTransition reports whether the state machine allows moving from one status to another
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidOrderStatus reports whether the status is a known state machine state
func ValidOrderStatus(status OrderStatus) bool {
	_, ok := orderTransitions[status]
	return ok
}

// IsMutable returns true if tickets may still be added to or removed from the order
func (o *Order) IsMutable() bool {
	return o.Status == OrderAnonymous || o.Status == OrderAssigned
}

// IsOpen returns true if the order counts as a user's open order for the
// one-open-order-per-user rule
func (o *Order) IsOpen() bool {
	return o.Status == OrderAssigned
}

// IsPaid returns true if the order reached the terminal paid state
func (o *Order) IsPaid() bool {
	return o.Status == OrderPaid
}

// IsExpirable returns true if the expiry sweep may reclaim the order.
// Pending orders are mid-payment and must be reconciled, never expired;
// paid orders are permanent.
func (o *Order) IsExpirable() bool {
	switch o.Status {
	case OrderAnonymous, OrderAssigned, OrderExpired, OrderCancelled:
		return true
	default:
		return false
	}
}

// Total returns the order total in cents, summing ticket prices and
// enabled option deltas over the populated ticket set
func (o *Order) Total() int {
	total := 0
	for _, t := range o.Tickets {
		total += t.Price()
	}
	return total
}
