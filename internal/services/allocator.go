package services

import (
	"context"
	"time"

	"ticketshop/internal/config"
	"ticketshop/internal/models"
)

// TicketCounter provides event-wide ticket counts for the availability probe
type TicketCounter interface {
	CountAll(ctx context.Context) (int, error)
}

// Availability describes the advisory sale state of a ticket type. It is a
// point-in-time snapshot; the allocation transaction re-checks everything.
type Availability struct {
	TicketType *models.TicketType `json:"ticket_type"`
	OnSale     bool               `json:"on_sale"`
	Remaining  int                `json:"remaining"` // -1 for unlimited
	Reason     string             `json:"reason,omitempty"`
}

// AllocatorService answers availability questions about the catalog
type AllocatorService struct {
	catalog CatalogStore
	counter TicketCounter
	sales   config.SalesConfig
}

// NewAllocatorService creates a new allocator service
func NewAllocatorService(catalog CatalogStore, counter TicketCounter, sales config.SalesConfig) *AllocatorService {
	return &AllocatorService{catalog: catalog, counter: counter, sales: sales}
}

// Availability reports whether a ticket type can currently be bought and how
// many tickets remain
func (s *AllocatorService) Availability(ctx context.Context, typeID int) (*Availability, error) {
	ticketType, err := s.catalog.GetByID(ctx, typeID)
	if err != nil {
		return nil, err
	}

	result := &Availability{
		TicketType: ticketType,
		Remaining:  ticketType.Remaining(),
	}

	now := time.Now()
	switch {
	case !ticketType.Buyable:
		result.Reason = "not buyable"
	case !ticketType.IsOnSale(now):
		result.Reason = "sale deadline passed"
	case !ticketType.HasCapacityFor(ticketType.Sold):
		result.Reason = "sold out"
		result.Remaining = 0
	}
	if result.Reason != "" {
		return result, nil
	}

	if s.sales.EventTicketLimit > 0 {
		total, err := s.counter.CountAll(ctx)
		if err != nil {
			return nil, err
		}
		eventRemaining := s.sales.EventTicketLimit - total
		if eventRemaining <= 0 {
			result.Reason = "event ticket limit reached"
			result.Remaining = 0
			return result, nil
		}
		if result.Remaining < 0 || eventRemaining < result.Remaining {
			result.Remaining = eventRemaining
		}
	}

	result.OnSale = true
	return result, nil
}

// ValidateOptions checks that every requested option is in the ticket
// type's allowed set
func (s *AllocatorService) ValidateOptions(ctx context.Context, typeID int, optionIDs []int) error {
	ticketType, err := s.catalog.GetByID(ctx, typeID)
	if err != nil {
		return err
	}

	for _, optionID := range optionIDs {
		if !ticketType.AllowsOption(optionID) {
			return &models.OptionNotSupportedError{TypeID: typeID, OptionID: optionID}
		}
	}

	return nil
}
