package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ticketshop/internal/models"
)

// SeatRepository handles seat map data operations
type SeatRepository struct {
	db *sql.DB
}

// NewSeatRepository creates a new seat repository
func NewSeatRepository(db *sql.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

const seatColumns = "id, group_name, number, locked, ticket_id, created_at"

func scanSeat(row interface {
	Scan(dest ...interface{}) error
}) (*models.Seat, error) {
	seat := &models.Seat{}
	err := row.Scan(
		&seat.ID,
		&seat.GroupName,
		&seat.Number,
		&seat.Locked,
		&seat.TicketID,
		&seat.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return seat, nil
}

// Reserve assigns a valid ticket to a seat. The seat row is locked for the
// transaction, so two reservations for the same seat serialize and the
// loser sees the winner's assignment. With override the current holder is
// displaced in the same transaction.
func (r *SeatRepository) Reserve(ctx context.Context, groupName string, number, ticketID int, override bool) (*models.Seat, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	seat, err := scanSeat(tx.QueryRowContext(ctx,
		"SELECT "+seatColumns+" FROM seats WHERE group_name = $1 AND number = $2 FOR UPDATE",
		groupName, number))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrSeatNotFound
		}
		return nil, fmt.Errorf("failed to lock seat: %w", err)
	}

	var valid bool
	err = tx.QueryRowContext(ctx,
		"SELECT valid FROM tickets WHERE id = $1", ticketID).Scan(&valid)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to check ticket: %w", err)
	}
	if !valid {
		return nil, &models.InvalidTicketError{TicketID: ticketID}
	}

	if seat.Locked {
		return nil, &models.SeatLockedError{GroupName: groupName, Number: number}
	}

	if seat.TicketID != nil && *seat.TicketID != ticketID && !override {
		return nil, &models.SeatTakenError{GroupName: groupName, Number: number}
	}

	// A ticket sits on at most one seat; vacate its previous one.
	if _, err := tx.ExecContext(ctx,
		"UPDATE seats SET ticket_id = NULL WHERE ticket_id = $1", ticketID); err != nil {
		return nil, fmt.Errorf("failed to vacate previous seat: %w", err)
	}

	seat, err = scanSeat(tx.QueryRowContext(ctx, `
		UPDATE seats
		SET ticket_id = $3
		WHERE group_name = $1 AND number = $2
		RETURNING `+seatColumns,
		groupName, number, ticketID))
	if err != nil {
		return nil, fmt.Errorf("failed to reserve seat: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit seat reservation: %w", err)
	}

	return seat, nil
}

// Clear vacates a seat regardless of who holds it
func (r *SeatRepository) Clear(ctx context.Context, groupName string, number int) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE seats SET ticket_id = NULL WHERE group_name = $1 AND number = $2",
		groupName, number)
	if err != nil {
		return fmt.Errorf("failed to clear seat: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check seat clear: %w", err)
	}
	if rows == 0 {
		return models.ErrSeatNotFound
	}

	return nil
}

// AddSeats appends count seats to a group, numbering on from the group's
// current highest seat number
func (r *SeatRepository) AddSeats(ctx context.Context, req *models.SeatGroupCreateRequest) ([]*models.Seat, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(number), 0) + 1 FROM seats WHERE group_name = $1",
		req.GroupName).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("failed to get next seat number: %w", err)
	}

	now := time.Now()
	seats := make([]*models.Seat, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		seat, err := scanSeat(tx.QueryRowContext(ctx, `
			INSERT INTO seats (group_name, number, locked, created_at)
			VALUES ($1, $2, FALSE, $3)
			RETURNING `+seatColumns,
			req.GroupName, next+i, now))
		if err != nil {
			return nil, fmt.Errorf("failed to create seat %s/%d: %w", req.GroupName, next+i, err)
		}
		seats = append(seats, seat)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit seat creation: %w", err)
	}

	return seats, nil
}

// SetLocked locks or unlocks a seat for assignment
func (r *SeatRepository) SetLocked(ctx context.Context, groupName string, number int, locked bool) (*models.Seat, error) {
	seat, err := scanSeat(r.db.QueryRowContext(ctx, `
		UPDATE seats
		SET locked = $3
		WHERE group_name = $1 AND number = $2
		RETURNING `+seatColumns,
		groupName, number, locked))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrSeatNotFound
		}
		return nil, fmt.Errorf("failed to update seat lock: %w", err)
	}
	return seat, nil
}

// GetByPosition retrieves a seat by group and number
func (r *SeatRepository) GetByPosition(ctx context.Context, groupName string, number int) (*models.Seat, error) {
	seat, err := scanSeat(r.db.QueryRowContext(ctx,
		"SELECT "+seatColumns+" FROM seats WHERE group_name = $1 AND number = $2",
		groupName, number))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrSeatNotFound
		}
		return nil, fmt.Errorf("failed to get seat: %w", err)
	}
	return seat, nil
}

// ListGroup retrieves all seats in a group in seat number order
func (r *SeatRepository) ListGroup(ctx context.Context, groupName string) ([]*models.Seat, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+seatColumns+" FROM seats WHERE group_name = $1 ORDER BY number",
		groupName)
	if err != nil {
		return nil, fmt.Errorf("failed to list seats: %w", err)
	}
	defer rows.Close()

	var seats []*models.Seat
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan seat: %w", err)
		}
		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seats: %w", err)
	}

	return seats, nil
}
