package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ticketshop/internal/models"
)

// TicketTypeRepository handles ticket type and ticket option catalog data
type TicketTypeRepository struct {
	db *sql.DB
}

// NewTicketTypeRepository creates a new ticket type repository
func NewTicketTypeRepository(db *sql.DB) *TicketTypeRepository {
	return &TicketTypeRepository{db: db}
}

// CreateTicketType creates a new ticket type with its allowed option set
func (r *TicketTypeRepository) CreateTicketType(ctx context.Context, req *models.TicketTypeCreateRequest) (*models.TicketType, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO ticket_types (name, description, price, capacity, deadline, buyable, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, name, description, price, capacity, deadline, buyable, created_at, updated_at`

	now := time.Now()
	ticketType := &models.TicketType{}
	err = tx.QueryRowContext(ctx, query,
		req.Name,
		req.Description,
		req.Price,
		req.Capacity,
		req.Deadline,
		req.Buyable,
		now,
		now,
	).Scan(
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
		return nil, fmt.Errorf("failed to create ticket type: %w", err)
	}

	if err := r.replaceAllowedOptionsTx(ctx, tx, ticketType.ID, req.OptionIDs); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ticket type creation: %w", err)
	}

	ticketType.Options, err = r.GetAllowedOptions(ctx, ticketType.ID)
	if err != nil {
		return nil, err
	}

	return ticketType, nil
}

// UpdateTicketType updates a ticket type and its allowed option set
func (r *TicketTypeRepository) UpdateTicketType(ctx context.Context, id int, req *models.TicketTypeUpdateRequest) (*models.TicketType, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE ticket_types
		SET name = $2, description = $3, price = $4, capacity = $5, deadline = $6, buyable = $7, updated_at = $8
		WHERE id = $1
		RETURNING id, name, description, price, capacity, deadline, buyable, created_at, updated_at`

	ticketType := &models.TicketType{}
	err = tx.QueryRowContext(ctx, query,
		id,
		req.Name,
		req.Description,
		req.Price,
		req.Capacity,
		req.Deadline,
		req.Buyable,
		time.Now(),
	).Scan(
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
		return nil, fmt.Errorf("failed to update ticket type: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM ticket_type_options WHERE ticket_type_id = $1", id); err != nil {
		return nil, fmt.Errorf("failed to clear allowed options: %w", err)
	}

	if err := r.replaceAllowedOptionsTx(ctx, tx, id, req.OptionIDs); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ticket type update: %w", err)
	}

	ticketType.Options, err = r.GetAllowedOptions(ctx, id)
	if err != nil {
		return nil, err
	}

	return ticketType, nil
}

// replaceAllowedOptionsTx links the given options to a ticket type
func (r *TicketTypeRepository) replaceAllowedOptionsTx(ctx context.Context, tx *sql.Tx, typeID int, optionIDs []int) error {
	for _, optionID := range optionIDs {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO ticket_type_options (ticket_type_id, ticket_option_id)
			SELECT $1, id FROM ticket_options WHERE id = $2
			ON CONFLICT DO NOTHING`,
			typeID, optionID)
		if err != nil {
			return fmt.Errorf("failed to link option %d: %w", optionID, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check option link: %w", err)
		}
		if rows == 0 {
			return models.ErrOptionNotFound
		}
	}
	return nil
}

// GetByID retrieves a ticket type with its allowed options and sold count
func (r *TicketTypeRepository) GetByID(ctx context.Context, id int) (*models.TicketType, error) {
	query := `
		SELECT tt.id, tt.name, tt.description, tt.price, tt.capacity, tt.deadline, tt.buyable,
		       tt.created_at, tt.updated_at, COUNT(t.id) AS sold
		FROM ticket_types tt
		LEFT JOIN tickets t ON t.ticket_type_id = tt.id
		WHERE tt.id = $1
		GROUP BY tt.id`

	ticketType := &models.TicketType{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ticketType.ID,
		&ticketType.Name,
		&ticketType.Description,
		&ticketType.Price,
		&ticketType.Capacity,
		&ticketType.Deadline,
		&ticketType.Buyable,
		&ticketType.CreatedAt,
		&ticketType.UpdatedAt,
		&ticketType.Sold,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTicketTypeNotFound
		}
		return nil, fmt.Errorf("failed to get ticket type: %w", err)
	}

	ticketType.Options, err = r.GetAllowedOptions(ctx, id)
	if err != nil {
		return nil, err
	}

	return ticketType, nil
}

// GetAll retrieves all ticket types with sold counts, cheapest first
func (r *TicketTypeRepository) GetAll(ctx context.Context) ([]*models.TicketType, error) {
	query := `
		SELECT tt.id, tt.name, tt.description, tt.price, tt.capacity, tt.deadline, tt.buyable,
		       tt.created_at, tt.updated_at, COUNT(t.id) AS sold
		FROM ticket_types tt
		LEFT JOIN tickets t ON t.ticket_type_id = tt.id
		GROUP BY tt.id
		ORDER BY tt.price ASC, tt.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket types: %w", err)
	}
	defer rows.Close()

	var ticketTypes []*models.TicketType
	for rows.Next() {
		ticketType := &models.TicketType{}
		err := rows.Scan(
			&ticketType.ID,
			&ticketType.Name,
			&ticketType.Description,
			&ticketType.Price,
			&ticketType.Capacity,
			&ticketType.Deadline,
			&ticketType.Buyable,
			&ticketType.CreatedAt,
			&ticketType.UpdatedAt,
			&ticketType.Sold,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket type: %w", err)
		}
		ticketTypes = append(ticketTypes, ticketType)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticket types: %w", err)
	}

	for _, ticketType := range ticketTypes {
		ticketType.Options, err = r.GetAllowedOptions(ctx, ticketType.ID)
		if err != nil {
			return nil, err
		}
	}

	return ticketTypes, nil
}

// GetAllowedOptions retrieves the allowed option set of a ticket type
func (r *TicketTypeRepository) GetAllowedOptions(ctx context.Context, typeID int) ([]*models.TicketOption, error) {
	query := `
		SELECT o.id, o.name, o.price_delta, o.created_at
		FROM ticket_options o
		JOIN ticket_type_options tto ON tto.ticket_option_id = o.id
		WHERE tto.ticket_type_id = $1
		ORDER BY o.id`

	rows, err := r.db.QueryContext(ctx, query, typeID)
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

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating options: %w", err)
	}

	return options, nil
}

// CreateOption creates a new ticket option
func (r *TicketTypeRepository) CreateOption(ctx context.Context, req *models.TicketOptionCreateRequest) (*models.TicketOption, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO ticket_options (name, price_delta, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, name, price_delta, created_at`

	option := &models.TicketOption{}
	err := r.db.QueryRowContext(ctx, query, req.Name, req.PriceDelta, time.Now()).Scan(
		&option.ID,
		&option.Name,
		&option.PriceDelta,
		&option.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket option: %w", err)
	}

	return option, nil
}

// GetAllOptions retrieves every ticket option
func (r *TicketTypeRepository) GetAllOptions(ctx context.Context) ([]*models.TicketOption, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, price_delta, created_at FROM ticket_options ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket options: %w", err)
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

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating options: %w", err)
	}

	return options, nil
}
