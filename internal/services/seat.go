package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"ticketshop/internal/models"
	"ticketshop/internal/monitoring"
)

// SeatStore is the seat persistence surface the seat service depends on
type SeatStore interface {
	Reserve(ctx context.Context, groupName string, number, ticketID int, override bool) (*models.Seat, error)
	Clear(ctx context.Context, groupName string, number int) error
	AddSeats(ctx context.Context, req *models.SeatGroupCreateRequest) ([]*models.Seat, error)
	SetLocked(ctx context.Context, groupName string, number int, locked bool) (*models.Seat, error)
	ListGroup(ctx context.Context, groupName string) ([]*models.Seat, error)
}

// SeatService manages the seat map and exclusive seat reservations
type SeatService struct {
	store  SeatStore
	logger *zap.Logger
}

// NewSeatService creates a new seat service
func NewSeatService(store SeatStore, logger *zap.Logger) *SeatService {
	return &SeatService{store: store, logger: logger}
}

// Reserve places a valid ticket on a seat. Without override the reservation
// fails if the seat is taken; with override the current holder loses the
// seat in the same transaction.
func (s *SeatService) Reserve(ctx context.Context, groupName string, number, ticketID int, override bool) (*models.Seat, error) {
	seat, err := s.store.Reserve(ctx, groupName, number, ticketID, override)
	if err != nil {
		var taken *models.SeatTakenError
		var locked *models.SeatLockedError
		switch {
		case errors.As(err, &taken):
			monitoring.SeatReservations.WithLabelValues("taken").Inc()
		case errors.As(err, &locked):
			monitoring.SeatReservations.WithLabelValues("locked").Inc()
		default:
			monitoring.SeatReservations.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	monitoring.SeatReservations.WithLabelValues("reserved").Inc()
	s.logger.Info("seat reserved",
		zap.String("group", groupName),
		zap.Int("number", number),
		zap.Int("ticket_id", ticketID),
		zap.Bool("override", override))

	return seat, nil
}

// Clear vacates a seat
func (s *SeatService) Clear(ctx context.Context, groupName string, number int) error {
	if err := s.store.Clear(ctx, groupName, number); err != nil {
		return err
	}

	s.logger.Info("seat cleared",
		zap.String("group", groupName),
		zap.Int("number", number))

	return nil
}

// AddSeats appends seats to a group
func (s *SeatService) AddSeats(ctx context.Context, req *models.SeatGroupCreateRequest) ([]*models.Seat, error) {
	seats, err := s.store.AddSeats(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("seats added",
		zap.String("group", req.GroupName),
		zap.Int("count", len(seats)))

	return seats, nil
}

// SetLocked locks or unlocks a seat
func (s *SeatService) SetLocked(ctx context.Context, groupName string, number int, locked bool) (*models.Seat, error) {
	seat, err := s.store.SetLocked(ctx, groupName, number, locked)
	if err != nil {
		return nil, err
	}

	s.logger.Info("seat lock changed",
		zap.String("group", groupName),
		zap.Int("number", number),
		zap.Bool("locked", locked))

	return seat, nil
}

// ListGroup retrieves all seats in a group
func (s *SeatService) ListGroup(ctx context.Context, groupName string) ([]*models.Seat, error) {
	return s.store.ListGroup(ctx, groupName)
}
