package models

import (
	"errors"
	"strings"
	"time"
)

// TicketType represents a purchasable category of ticket with price,
// capacity and sale deadline. Administrator-managed and long-lived.
type TicketType struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       int       `json:"price" db:"price"` // Price in cents
	Capacity    int       `json:"capacity" db:"capacity"` // 0 means unlimited
	Deadline    time.Time `json:"deadline" db:"deadline"`
	Buyable     bool      `json:"buyable" db:"buyable"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Options is the allowed option set; a ticket of this type may only
	// enable options from this set.
	Options []*TicketOption `json:"options,omitempty"`

	// Sold is populated on catalog reads; it counts currently existing
	// tickets of this type, so expired orders return their slots.
	Sold int `json:"sold" db:"sold"`
}

// TicketOption represents an add-on attached to a ticket, modifying its price
type TicketOption struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	PriceDelta int       `json:"price_delta" db:"price_delta"` // May be negative (discount)
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Ticket represents an individual ticket owned by exactly one order
type Ticket struct {
	ID           int       `json:"id" db:"id"`
	TicketTypeID int       `json:"ticket_type_id" db:"ticket_type_id"`
	OrderID      int       `json:"order_id" db:"order_id"`
	OwnerID      *int      `json:"owner_id,omitempty" db:"owner_id"`
	Code         string    `json:"code" db:"code"`
	Valid        bool      `json:"valid" db:"valid"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	// Type and Options are populated on detail reads. The enabled option
	// set is immutable after creation.
	Type    *TicketType     `json:"type,omitempty"`
	Options []*TicketOption `json:"enabled_options,omitempty"`
}

// TicketTypeCreateRequest represents the data needed to create a ticket type
type TicketTypeCreateRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int       `json:"price"`
	Capacity    int       `json:"capacity"`
	Deadline    time.Time `json:"deadline"`
	Buyable     bool      `json:"buyable"`
	OptionIDs   []int     `json:"option_ids"`
}

// TicketTypeUpdateRequest represents the data that can be updated on a ticket type
type TicketTypeUpdateRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int       `json:"price"`
	Capacity    int       `json:"capacity"`
	Deadline    time.Time `json:"deadline"`
	Buyable     bool      `json:"buyable"`
	OptionIDs   []int     `json:"option_ids"`
}

// TicketOptionCreateRequest represents the data needed to create a ticket option
type TicketOptionCreateRequest struct {
	Name       string `json:"name"`
	PriceDelta int    `json:"price_delta"`
}

// Validate validates ticket type creation data
func (req *TicketTypeCreateRequest) Validate() error {
	return validateTicketTypeFields(req.Name, req.Price, req.Capacity, req.Deadline)
}

// Validate validates ticket type update data
func (req *TicketTypeUpdateRequest) Validate() error {
	return validateTicketTypeFields(req.Name, req.Price, req.Capacity, req.Deadline)
}

// Validate validates ticket option creation data
func (req *TicketOptionCreateRequest) Validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("option name is required")
	}
	if len(req.Name) > 100 {
		return errors.New("option name must be less than 100 characters")
	}
	return nil
}

// validateTicketTypeFields validates the shared ticket type fields
func validateTicketTypeFields(name string, price, capacity int, deadline time.Time) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("ticket type name is required")
	}

	if len(name) > 100 {
		return errors.New("ticket type name must be less than 100 characters")
	}

	if price < 0 {
		return errors.New("ticket price cannot be negative")
	}

	if capacity < 0 {
		return errors.New("ticket capacity cannot be negative")
	}

	if deadline.IsZero() {
		return errors.New("sale deadline is required")
	}

	return nil
}

// IsOnSale returns true if the type is buyable and its deadline has not passed
func (tt *TicketType) IsOnSale(now time.Time) bool {
	return tt.Buyable && now.Before(tt.Deadline)
}

// HasCapacityFor returns true if the given sold count leaves room for one
// more ticket; a capacity of 0 means unlimited
func (tt *TicketType) HasCapacityFor(sold int) bool {
	return tt.Capacity == 0 || sold < tt.Capacity
}

// AllowsOption returns true if the option belongs to the type's allowed set
func (tt *TicketType) AllowsOption(optionID int) bool {
	for _, opt := range tt.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// Remaining returns the number of unsold slots, or -1 for unlimited capacity
func (tt *TicketType) Remaining() int {
	if tt.Capacity == 0 {
		return -1
	}
	remaining := tt.Capacity - tt.Sold
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Price returns the ticket price in cents including enabled option deltas.
// Requires Type and Options to be populated.
func (t *Ticket) Price() int {
	price := 0
	if t.Type != nil {
		price = t.Type.Price
	}
	for _, opt := range t.Options {
		price += opt.PriceDelta
	}
	if price < 0 {
		return 0
	}
	return price
}
