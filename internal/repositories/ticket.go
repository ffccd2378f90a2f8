package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ticketshop/internal/models"
)

// eventTicketLockKey is the advisory lock key guarding the event-wide
// ticket count. Taken after the per-type row lock, never before.
const eventTicketLockKey = 815001

// TicketRepository handles individual ticket data operations
type TicketRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// allocateTicketTx atomically allocates one ticket of the given type inside
// an existing transaction. It locks the ticket_types row so concurrent
// allocations for the same type serialize, re-checks every availability
// rule under that lock, and guards the event-wide cap with an advisory
// transaction lock.
func allocateTicketTx(ctx context.Context, tx *sql.Tx, typeID int, optionIDs []int, orderID, eventLimit int, now time.Time) (*models.Ticket, error) {
	ticketType := &models.TicketType{}
	err := tx.QueryRowContext(ctx, `
		SELECT id, name, description, price, capacity, deadline, buyable, created_at, updated_at
		FROM ticket_types
		WHERE id = $1
		FOR UPDATE`, typeID).Scan(
		&ticketType.ID,
		&ticketType.Name,
		&ticketType.Description,
		&ticketType.Price,
		&ticketType.Capacity,
		&ticketType.Deadline,
		&ticketType.Buyable,
		&ticketType.CreatedAt,
		&ticketType.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTicketTypeNotFound
		}
		return nil, fmt.Errorf("failed to lock ticket type: %w", err)
	}

	options, err := allowedOptionsTx(ctx, tx, typeID)
	if err != nil {
		return nil, err
	}
	ticketType.Options = options

	enabled := make([]*models.TicketOption, 0, len(optionIDs))
	for _, optionID := range optionIDs {
		var match *models.TicketOption
		for _, opt := range options {
			if opt.ID == optionID {
				match = opt
				break
			}
		}
		if match == nil {
			return nil, &models.OptionNotSupportedError{TypeID: typeID, OptionID: optionID}
		}
		enabled = append(enabled, match)
	}

	if !ticketType.Buyable {
		return nil, &models.TicketUnavailableError{TypeID: typeID, Reason: "not buyable"}
	}

	if !now.Before(ticketType.Deadline) {
		return nil, &models.TicketUnavailableError{TypeID: typeID, Reason: "sale deadline passed"}
	}

	if ticketType.Capacity > 0 {
		var sold int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM tickets WHERE ticket_type_id = $1", typeID).Scan(&sold)
		if err != nil {
			return nil, fmt.Errorf("failed to count sold tickets: %w", err)
		}
		if sold >= ticketType.Capacity {
			return nil, &models.TicketUnavailableError{TypeID: typeID, Reason: "sold out"}
		}
	}

	if eventLimit > 0 {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", eventTicketLockKey); err != nil {
			return nil, fmt.Errorf("failed to take event ticket lock: %w", err)
		}
		var total int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets").Scan(&total); err != nil {
			return nil, fmt.Errorf("failed to count event tickets: %w", err)
		}
		if total >= eventLimit {
			return nil, &models.TicketUnavailableError{TypeID: typeID, Reason: "event ticket limit reached"}
		}
	}

	ticket := &models.Ticket{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO tickets (ticket_type_id, order_id, code, valid, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
		RETURNING id, ticket_type_id, order_id, owner_id, code, valid, created_at`,
		typeID, orderID, uuid.NewString(), now,
	).Scan(
		&ticket.ID,
		&ticket.TicketTypeID,
		&ticket.OrderID,
		&ticket.OwnerID,
		&ticket.Code,
		&ticket.Valid,
		&ticket.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	for _, opt := range enabled {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO ticket_enabled_options (ticket_id, ticket_option_id) VALUES ($1, $2)",
			ticket.ID, opt.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to enable option %d: %w", opt.ID, err)
		}
	}

	ticket.Type = ticketType
	ticket.Options = enabled

	return ticket, nil
}

// allowedOptionsTx loads a ticket type's allowed option set inside a transaction
func allowedOptionsTx(ctx context.Context, tx *sql.Tx, typeID int) ([]*models.TicketOption, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT o.id, o.name, o.price_delta, o.created_at
		FROM ticket_options o
		JOIN ticket_type_options tto ON tto.ticket_option_id = o.id
		WHERE tto.ticket_type_id = $1
		ORDER BY o.id`, typeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get allowed options: %w", err)
	}
	defer rows.Close()

	var options []*models.TicketOption
	for rows.Next() {
		option := &models.TicketOption{}
		if err := rows.Scan(&option.ID, &option.Name, &option.PriceDelta, &option.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, option)
	}

	return options, rows.Err()
}

// GetByID retrieves a ticket with its type and enabled options
func (r *TicketRepository) GetByID(ctx context.Context, id int) (*models.Ticket, error) {
	query := `
		SELECT t.id, t.ticket_type_id, t.order_id, t.owner_id, t.code, t.valid, t.created_at,
		       tt.id, tt.name, tt.description, tt.price, tt.capacity, tt.deadline, tt.buyable,
		       tt.created_at, tt.updated_at
		FROM tickets t
		JOIN ticket_types tt ON tt.id = t.ticket_type_id
		WHERE t.id = $1`

	ticket := &models.Ticket{Type: &models.TicketType{}}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.TicketTypeID,
		&ticket.OrderID,
		&ticket.OwnerID,
		&ticket.Code,
		&ticket.Valid,
		&ticket.CreatedAt,
		&ticket.Type.ID,
		&ticket.Type.Name,
		&ticket.Type.Description,
		&ticket.Type.Price,
		&ticket.Type.Capacity,
		&ticket.Type.Deadline,
		&ticket.Type.Buyable,
		&ticket.Type.CreatedAt,
		&ticket.Type.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	ticket.Options, err = r.enabledOptions(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// GetByOrder retrieves all tickets of an order with types and enabled options
func (r *TicketRepository) GetByOrder(ctx context.Context, orderID int) ([]*models.Ticket, error) {
	query := `
		SELECT t.id, t.ticket_type_id, t.order_id, t.owner_id, t.code, t.valid, t.created_at,
		       tt.id, tt.name, tt.description, tt.price, tt.capacity, tt.deadline, tt.buyable,
		       tt.created_at, tt.updated_at
		FROM tickets t
		JOIN ticket_types tt ON tt.id = t.ticket_type_id
		WHERE t.order_id = $1
		ORDER BY t.id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		ticket := &models.Ticket{Type: &models.TicketType{}}
		err := rows.Scan(
			&ticket.ID,
			&ticket.TicketTypeID,
			&ticket.OrderID,
			&ticket.OwnerID,
			&ticket.Code,
			&ticket.Valid,
			&ticket.CreatedAt,
			&ticket.Type.ID,
			&ticket.Type.Name,
			&ticket.Type.Description,
			&ticket.Type.Price,
			&ticket.Type.Capacity,
			&ticket.Type.Deadline,
			&ticket.Type.Buyable,
			&ticket.Type.CreatedAt,
			&ticket.Type.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}

	for _, ticket := range tickets {
		ticket.Options, err = r.enabledOptions(ctx, ticket.ID)
		if err != nil {
			return nil, err
		}
	}

	return tickets, nil
}

// enabledOptions loads the enabled option set of a ticket
func (r *TicketRepository) enabledOptions(ctx context.Context, ticketID int) ([]*models.TicketOption, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.name, o.price_delta, o.created_at
		FROM ticket_options o
		JOIN ticket_enabled_options teo ON teo.ticket_option_id = o.id
		WHERE teo.ticket_id = $1
		ORDER BY o.id`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enabled options: %w", err)
	}
	defer rows.Close()

	var options []*models.TicketOption
	for rows.Next() {
		option := &models.TicketOption{}
		if err := rows.Scan(&option.ID, &option.Name, &option.PriceDelta, &option.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, option)
	}

	return options, rows.Err()
}

// CountByType returns the number of existing tickets of a type
func (r *TicketRepository) CountByType(ctx context.Context, typeID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tickets WHERE ticket_type_id = $1", typeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}

// CountAll returns the number of existing tickets across all types
func (r *TicketRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}
