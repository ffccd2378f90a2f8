package models

import (
	"errors"
	"fmt"
)

// Common errors used throughout the application
var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrOptionNotFound     = errors.New("ticket option not found")
	ErrSeatNotFound       = errors.New("seat not found")
	ErrInvalidInput       = errors.New("invalid input")
)

// TicketUnavailableError is returned when a ticket type cannot be sold:
// not buyable, past its deadline, sold out, or the event-wide limit is hit.
type TicketUnavailableError struct {
	TypeID int
	Reason string
}

func (e *TicketUnavailableError) Error() string {
	return fmt.Sprintf("ticket type %d unavailable: %s", e.TypeID, e.Reason)
}

// OptionNotSupportedError is returned when an enabled option is not in the
// ticket type's allowed set.
type OptionNotSupportedError struct {
	TypeID   int
	OptionID int
}

func (e *OptionNotSupportedError) Error() string {
	return fmt.Sprintf("ticket type %d does not support option %d", e.TypeID, e.OptionID)
}

// ImmutableOrderError is returned when mutating an order that left its
// mutable states.
type ImmutableOrderError struct {
	OrderID int
	Status  OrderStatus
}

func (e *ImmutableOrderError) Error() string {
	return fmt.Sprintf("order %d is immutable in status %s", e.OrderID, e.Status)
}

// UnassignedOrderError is returned when an operation requires an order owner.
type UnassignedOrderError struct {
	OrderID int
}

func (e *UnassignedOrderError) Error() string {
	return fmt.Sprintf("order %d has no owner", e.OrderID)
}

// EmptyOrderError is returned when payment is requested for an order with a
// zero total.
type EmptyOrderError struct {
	OrderID int
}

func (e *EmptyOrderError) Error() string {
	return fmt.Sprintf("order %d has nothing to pay for", e.OrderID)
}

// OrderFullError is returned when an order already holds the per-order
// ticket limit.
type OrderFullError struct {
	OrderID int
	Limit   int
}

func (e *OrderFullError) Error() string {
	return fmt.Sprintf("order %d already holds the maximum of %d tickets", e.OrderID, e.Limit)
}

// OrderChangedError is returned when the order total changed between payment
// registration and the pending transition.
type OrderChangedError struct {
	OrderID int
}

func (e *OrderChangedError) Error() string {
	return fmt.Sprintf("order %d changed during payment registration", e.OrderID)
}

// SeatTakenError is returned when a reservation target is already occupied
// and override was not allowed.
type SeatTakenError struct {
	GroupName string
	Number    int
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("seat %s/%d is already taken", e.GroupName, e.Number)
}

// SeatLockedError is returned when the target seat is not assignable.
type SeatLockedError struct {
	GroupName string
	Number    int
}

func (e *SeatLockedError) Error() string {
	return fmt.Sprintf("seat %s/%d is locked", e.GroupName, e.Number)
}

// InvalidTicketError is returned when a seat reservation names a ticket
// that is not valid (its order has not been paid or approved).
type InvalidTicketError struct {
	TicketID int
}

func (e *InvalidTicketError) Error() string {
	return fmt.Sprintf("ticket %d is not valid", e.TicketID)
}

// PaymentUnreachableError is returned when the payment provider cannot be
// reached; the order is left in its last known-good state.
type PaymentUnreachableError struct {
	Op  string
	Err error
}

func (e *PaymentUnreachableError) Error() string {
	return fmt.Sprintf("payment gateway unreachable during %s: %v", e.Op, e.Err)
}

func (e *PaymentUnreachableError) Unwrap() error {
	return e.Err
}

// PaymentError is returned when the payment provider rejects a request.
type PaymentError struct {
	Op     string
	Detail string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment gateway rejected %s: %s", e.Op, e.Detail)
}
