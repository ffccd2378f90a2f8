package services

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ticketshop/internal/models"
)

// memorySeatStore mirrors the seat repository rules in memory
type memorySeatStore struct {
	mu           sync.Mutex
	seats        map[string]*models.Seat // keyed by group/number
	validTickets map[int]bool
	nextID       int
}

func newMemorySeatStore(validTickets ...int) *memorySeatStore {
	s := &memorySeatStore{
		seats:        make(map[string]*models.Seat),
		validTickets: make(map[int]bool),
	}
	for _, id := range validTickets {
		s.validTickets[id] = true
	}
	return s
}

func seatKey(group string, number int) string {
	return group + "/" + strconv.Itoa(number)
}

func (s *memorySeatStore) Reserve(ctx context.Context, groupName string, number, ticketID int, override bool) (*models.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, ok := s.seats[seatKey(groupName, number)]
	if !ok {
		return nil, models.ErrSeatNotFound
	}
	if valid, exists := s.validTickets[ticketID]; !exists {
		return nil, models.ErrTicketNotFound
	} else if !valid {
		return nil, &models.InvalidTicketError{TicketID: ticketID}
	}
	if seat.Locked {
		return nil, &models.SeatLockedError{GroupName: groupName, Number: number}
	}
	if seat.TicketID != nil && *seat.TicketID != ticketID && !override {
		return nil, &models.SeatTakenError{GroupName: groupName, Number: number}
	}

	for _, other := range s.seats {
		if other.TicketID != nil && *other.TicketID == ticketID {
			other.TicketID = nil
		}
	}
	seat.TicketID = &ticketID
	return seat, nil
}

func (s *memorySeatStore) Clear(ctx context.Context, groupName string, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, ok := s.seats[seatKey(groupName, number)]
	if !ok {
		return models.ErrSeatNotFound
	}
	seat.TicketID = nil
	return nil
}

func (s *memorySeatStore) AddSeats(ctx context.Context, req *models.SeatGroupCreateRequest) ([]*models.Seat, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	highest := 0
	for _, seat := range s.seats {
		if seat.GroupName == req.GroupName && seat.Number > highest {
			highest = seat.Number
		}
	}

	var seats []*models.Seat
	for i := 1; i <= req.Count; i++ {
		s.nextID++
		seat := &models.Seat{ID: s.nextID, GroupName: req.GroupName, Number: highest + i}
		s.seats[seatKey(req.GroupName, seat.Number)] = seat
		seats = append(seats, seat)
	}
	return seats, nil
}

func (s *memorySeatStore) SetLocked(ctx context.Context, groupName string, number int, locked bool) (*models.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, ok := s.seats[seatKey(groupName, number)]
	if !ok {
		return nil, models.ErrSeatNotFound
	}
	seat.Locked = locked
	return seat, nil
}

func (s *memorySeatStore) ListGroup(ctx context.Context, groupName string) ([]*models.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var seats []*models.Seat
	for _, seat := range s.seats {
		if seat.GroupName == groupName {
			seats = append(seats, seat)
		}
	}
	return seats, nil
}

func newTestSeatService(store SeatStore) *SeatService {
	return NewSeatService(store, zap.NewNop())
}

func TestSeatReserve(t *testing.T) {
	store := newMemorySeatStore(1)
	svc := newTestSeatService(store)
	ctx := context.Background()

	_, err := svc.AddSeats(ctx, &models.SeatGroupCreateRequest{GroupName: "hall", Count: 3})
	require.NoError(t, err)

	seat, err := svc.Reserve(ctx, "hall", 1, 1, false)
	require.NoError(t, err)
	require.NotNil(t, seat.TicketID)
	assert.Equal(t, 1, *seat.TicketID)
}

func TestSeatReserveTakenWithoutOverride(t *testing.T) {
	store := newMemorySeatStore(1, 2)
	svc := newTestSeatService(store)
	ctx := context.Background()

	_, err := svc.AddSeats(ctx, &models.SeatGroupCreateRequest{GroupName: "hall", Count: 1})
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, "hall", 1, 1, false)
	require.NoError(t, err)

	// Without override, the holder keeps the seat.
	_, err = svc.Reserve(ctx, "hall", 1, 2, false)
	var taken *models.SeatTakenError
	require.ErrorAs(t, err, &taken)

	seats, err := svc.ListGroup(ctx, "hall")
	require.NoError(t, err)
	require.Len(t, seats, 1)
	assert.Equal(t, 1, *seats[0].TicketID)
}

func TestSeatReserveOverrideDisplacesHolder(t *testing.T) {
	store := newMemorySeatStore(1, 2)
	svc := newTestSeatService(store)
	ctx := context.Background()

	_, err := svc.AddSeats(ctx, &models.SeatGroupCreateRequest{GroupName: "hall", Count: 1})
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, "hall", 1, 1, false)
	require.NoError(t, err)

	seat, err := svc.Reserve(ctx, "hall", 1, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 2, *seat.TicketID)
}

func TestSeatReserveMoveVacatesPrevious(t *testing.T) {
	store := newMemorySeatStore(1)
	svc := newTestSeatService(store)
	ctx := context.Background()

	_, err := svc.AddSeats(ctx, &models.SeatGroupCreateRequest{GroupName: "hall", Count: 2})
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, "hall", 1, 1, false)
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, "hall", 2, 1, false)
	require.NoError(t, err)

	seats, err := svc.ListGroup(ctx, "hall")
	require.NoError(t, err)

	occupied := 0
	for _, seat := range seats {
		if seat.TicketID != nil {
			occupied++
			assert.Equal(t, 2, seat.Number)
		}
	}
	assert.Equal(t, 1, occupied)
}

func TestSeatReserveInvalidTicket(t *testing.T) {
	store := newMemorySeatStore()
	store.validTickets[9] = false
	svc := newTestSeatService(store)
	ctx := context.Background()

	_, err := svc.AddSeats(ctx, &models.SeatGroupCreateRequest{GroupName: "hall", Count: 1})
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, "hall", 1, 9, false)
	var invalid *models.InvalidTicketError
	assert.ErrorAs(t, err, &invalid)
}

func TestSeatReserveLocked(t *testing.T) {
	store := newMemorySeatStore(1)
	svc := newTestSeatService(store)
	ctx := context.Background()

	_, err := svc.AddSeats(ctx, &models.SeatGroupCreateRequest{GroupName: "hall", Count: 1})
	require.NoError(t, err)
	_, err = svc.SetLocked(ctx, "hall", 1, true)
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, "hall", 1, 1, false)
	var locked *models.SeatLockedError
	assert.ErrorAs(t, err, &locked)
}

func TestSeatClear(t *testing.T) {
	store := newMemorySeatStore(1)
	svc := newTestSeatService(store)
	ctx := context.Background()

	_, err := svc.AddSeats(ctx, &models.SeatGroupCreateRequest{GroupName: "hall", Count: 1})
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, "hall", 1, 1, false)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "hall", 1))

	seats, err := svc.ListGroup(ctx, "hall")
	require.NoError(t, err)
	assert.Nil(t, seats[0].TicketID)
}
