package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketshop/internal/config"
	"ticketshop/internal/models"
)

// fakeCatalog serves a fixed set of ticket types
type fakeCatalog struct {
	types map[int]*models.TicketType
}

func (f *fakeCatalog) GetByID(ctx context.Context, id int) (*models.TicketType, error) {
	tt, ok := f.types[id]
	if !ok {
		return nil, models.ErrTicketTypeNotFound
	}
	return tt, nil
}

func (f *fakeCatalog) GetAll(ctx context.Context) ([]*models.TicketType, error) {
	var all []*models.TicketType
	for _, tt := range f.types {
		all = append(all, tt)
	}
	return all, nil
}

func (f *fakeCatalog) CreateTicketType(ctx context.Context, req *models.TicketTypeCreateRequest) (*models.TicketType, error) {
	return nil, nil
}

func (f *fakeCatalog) UpdateTicketType(ctx context.Context, id int, req *models.TicketTypeUpdateRequest) (*models.TicketType, error) {
	return nil, nil
}

func (f *fakeCatalog) CreateOption(ctx context.Context, req *models.TicketOptionCreateRequest) (*models.TicketOption, error) {
	return nil, nil
}

func (f *fakeCatalog) GetAllOptions(ctx context.Context) ([]*models.TicketOption, error) {
	return nil, nil
}

// fakeCounter reports a fixed event-wide ticket count
type fakeCounter struct{ total int }

func (f *fakeCounter) CountAll(ctx context.Context) (int, error) {
	return f.total, nil
}

func TestAvailability(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		ticketType    *models.TicketType
		eventLimit    int
		eventTotal    int
		wantOnSale    bool
		wantRemaining int
		wantReason    string
	}{
		{
			name:          "on sale with capacity",
			ticketType:    &models.TicketType{ID: 1, Buyable: true, Capacity: 100, Sold: 40, Deadline: now.Add(time.Hour)},
			wantOnSale:    true,
			wantRemaining: 60,
		},
		{
			name:          "on sale unlimited",
			ticketType:    &models.TicketType{ID: 1, Buyable: true, Capacity: 0, Sold: 999, Deadline: now.Add(time.Hour)},
			wantOnSale:    true,
			wantRemaining: -1,
		},
		{
			name:          "not buyable",
			ticketType:    &models.TicketType{ID: 1, Buyable: false, Capacity: 100, Deadline: now.Add(time.Hour)},
			wantOnSale:    false,
			wantRemaining: 100,
			wantReason:    "not buyable",
		},
		{
			name:          "deadline passed",
			ticketType:    &models.TicketType{ID: 1, Buyable: true, Capacity: 100, Deadline: now.Add(-time.Hour)},
			wantOnSale:    false,
			wantRemaining: 100,
			wantReason:    "sale deadline passed",
		},
		{
			name:          "sold out",
			ticketType:    &models.TicketType{ID: 1, Buyable: true, Capacity: 100, Sold: 100, Deadline: now.Add(time.Hour)},
			wantOnSale:    false,
			wantRemaining: 0,
			wantReason:    "sold out",
		},
		{
			name:          "event limit caps remaining",
			ticketType:    &models.TicketType{ID: 1, Buyable: true, Capacity: 100, Sold: 40, Deadline: now.Add(time.Hour)},
			eventLimit:    500,
			eventTotal:    490,
			wantOnSale:    true,
			wantRemaining: 10,
		},
		{
			name:          "event limit caps unlimited type",
			ticketType:    &models.TicketType{ID: 1, Buyable: true, Capacity: 0, Deadline: now.Add(time.Hour)},
			eventLimit:    500,
			eventTotal:    495,
			wantOnSale:    true,
			wantRemaining: 5,
		},
		{
			name:          "event limit reached",
			ticketType:    &models.TicketType{ID: 1, Buyable: true, Capacity: 100, Sold: 40, Deadline: now.Add(time.Hour)},
			eventLimit:    500,
			eventTotal:    500,
			wantOnSale:    false,
			wantRemaining: 0,
			wantReason:    "event ticket limit reached",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &fakeCatalog{types: map[int]*models.TicketType{1: tt.ticketType}}
			counter := &fakeCounter{total: tt.eventTotal}
			svc := NewAllocatorService(catalog, counter, config.SalesConfig{EventTicketLimit: tt.eventLimit})

			availability, err := svc.Availability(context.Background(), 1)
			require.NoError(t, err)

			assert.Equal(t, tt.wantOnSale, availability.OnSale)
			assert.Equal(t, tt.wantRemaining, availability.Remaining)
			assert.Equal(t, tt.wantReason, availability.Reason)
		})
	}
}

func TestAvailabilityUnknownType(t *testing.T) {
	svc := NewAllocatorService(&fakeCatalog{types: map[int]*models.TicketType{}}, &fakeCounter{}, config.SalesConfig{})

	_, err := svc.Availability(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrTicketTypeNotFound)
}

func TestValidateOptions(t *testing.T) {
	catalog := &fakeCatalog{types: map[int]*models.TicketType{
		1: {
			ID:      1,
			Options: []*models.TicketOption{{ID: 1}, {ID: 2}},
		},
	}}
	svc := NewAllocatorService(catalog, &fakeCounter{}, config.SalesConfig{})

	assert.NoError(t, svc.ValidateOptions(context.Background(), 1, []int{1, 2}))
	assert.NoError(t, svc.ValidateOptions(context.Background(), 1, nil))

	err := svc.ValidateOptions(context.Background(), 1, []int{3})
	var unsupported *models.OptionNotSupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, 3, unsupported.OptionID)
}
