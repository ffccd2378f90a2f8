package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ticketshop/internal/models"
)

// OrderRepository handles order data operations. Every lifecycle mutation
// runs as a single transaction holding a row lock on the order, so
// transitions are linearizable per order.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = "id, status, owner_id, payment_reference, created_at, updated_at"

// userAssignLockKey is the advisory lock class guarding a user's order set
// during assignment. Taken before any order row lock, so two assigns for
// the same user cannot acquire order rows in opposite order.
const userAssignLockKey = 815002

// scanOrder scans an order row from any row scanner
func scanOrder(row interface {
	Scan(dest ...interface{}) error
}) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(
		&order.ID,
		&order.Status,
		&order.OwnerID,
		&order.PaymentReference,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// lockOrderTx locks an order row for the duration of the transaction
func lockOrderTx(ctx context.Context, tx *sql.Tx, orderID int) (*models.Order, error) {
	order, err := scanOrder(tx.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", orderID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return order, nil
}

// orderTicketStatsTx returns the ticket count and total price in cents of
// an order inside a transaction. Each ticket's price floors at zero before
// summing, matching Ticket.Price.
func orderTicketStatsTx(ctx context.Context, tx *sql.Tx, orderID int) (count, total int, err error) {
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(t.id),
		       COALESCE(SUM(GREATEST(0, tt.price + COALESCE(d.delta, 0))), 0)
		FROM tickets t
		JOIN ticket_types tt ON tt.id = t.ticket_type_id
		LEFT JOIN (
		    SELECT teo.ticket_id, SUM(o.price_delta) AS delta
		    FROM ticket_enabled_options teo
		    JOIN ticket_options o ON o.id = teo.ticket_option_id
		    GROUP BY teo.ticket_id
		) d ON d.ticket_id = t.id
		WHERE t.order_id = $1`, orderID).Scan(&count, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get order ticket stats: %w", err)
	}
	return count, total, nil
}

// CreateWithTicket creates a new anonymous order holding one freshly
// allocated ticket, as a single atomic unit
func (r *OrderRepository) CreateWithTicket(ctx context.Context, typeID int, optionIDs []int, eventLimit int) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	order, err := scanOrder(tx.QueryRowContext(ctx, `
		INSERT INTO orders (status, created_at, updated_at)
		VALUES ($1, $2, $3)
		RETURNING `+orderColumns,
		models.OrderAnonymous, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	ticket, err := allocateTicketTx(ctx, tx, typeID, optionIDs, order.ID, eventLimit, now)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}

	order.Tickets = []*models.Ticket{ticket}
	return order, nil
}

// AddTicket allocates a ticket and adds it to a mutable order. The order
// row lock makes the per-order limit check race-free against concurrent
// adds on the same order.
func (r *OrderRepository) AddTicket(ctx context.Context, orderID, typeID int, optionIDs []int, orderLimit, eventLimit int) (*models.Ticket, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsMutable() {
		return nil, &models.ImmutableOrderError{OrderID: orderID, Status: order.Status}
	}

	count, _, err := orderTicketStatsTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if orderLimit > 0 && count >= orderLimit {
		return nil, &models.OrderFullError{OrderID: orderID, Limit: orderLimit}
	}

	ticket, err := allocateTicketTx(ctx, tx, typeID, optionIDs, orderID, eventLimit, time.Now())
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE orders SET updated_at = $2 WHERE id = $1", orderID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to touch order: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ticket addition: %w", err)
	}

	return ticket, nil
}

// RemoveTicket removes a ticket from a mutable order and deletes it,
// returning its slot to the ticket type
func (r *OrderRepository) RemoveTicket(ctx context.Context, orderID, ticketID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return err
	}

	if !order.IsMutable() {
		return &models.ImmutableOrderError{OrderID: orderID, Status: order.Status}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM ticket_enabled_options WHERE ticket_id = $1", ticketID); err != nil {
		return fmt.Errorf("failed to delete ticket options: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		"DELETE FROM tickets WHERE id = $1 AND order_id = $2", ticketID, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check ticket deletion: %w", err)
	}
	if rows == 0 {
		return models.ErrTicketNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE orders SET updated_at = $2 WHERE id = $1", orderID, time.Now()); err != nil {
		return fmt.Errorf("failed to touch order: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ticket removal: %w", err)
	}

	return nil
}

// AssignToUser assigns an anonymous order to a user. Any other open order
// of that user is expired first, so a user ends up with exactly one
// assigned order.
func (r *OrderRepository) AssignToUser(ctx context.Context, orderID, userID int) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"SELECT pg_advisory_xact_lock($1, $2)", userAssignLockKey, userID); err != nil {
		return nil, fmt.Errorf("failed to take user assign lock: %w", err)
	}

	order, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderAnonymous {
		return nil, &models.ImmutableOrderError{OrderID: orderID, Status: order.Status}
	}

	// Expire any other open order of this user; locked in id order.
	rows, err := tx.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE owner_id = $1 AND status = $2 AND id <> $3
		ORDER BY id
		FOR UPDATE`, userID, models.OrderAssigned, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find open orders: %w", err)
	}

	var open []*models.Order
	for rows.Next() {
		other, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan open order: %w", err)
		}
		open = append(open, other)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating open orders: %w", err)
	}
	rows.Close()

	for _, other := range open {
		if err := expireOrderTx(ctx, tx, other); err != nil {
			return nil, err
		}
	}

	order, err = scanOrder(tx.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $2, owner_id = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+orderColumns,
		orderID, models.OrderAssigned, userID, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to assign order: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order assignment: %w", err)
	}

	return order, nil
}

// MarkPending moves an assigned order into pending after successful payment
// registration. The registered ticket count and total are re-checked under
// the order lock so a ticket added between registration and this
// transition is caught, even a free one.
func (r *OrderRepository) MarkPending(ctx context.Context, orderID int, reference string, registeredCount, registeredTotal int) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderAnonymous {
		return nil, &models.UnassignedOrderError{OrderID: orderID}
	}
	if order.Status != models.OrderAssigned {
		return nil, &models.ImmutableOrderError{OrderID: orderID, Status: order.Status}
	}

	count, total, err := orderTicketStatsTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if count != registeredCount || total != registeredTotal {
		return nil, &models.OrderChangedError{OrderID: orderID}
	}

	order, err = scanOrder(tx.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $2, payment_reference = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+orderColumns,
		orderID, models.OrderPending, reference, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to mark order pending: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pending transition: %w", err)
	}

	return order, nil
}

// ApplyPaymentStatus applies a reconciled payment status to the order with
// the given provider reference. The operation is idempotent: re-applying
// the current status, or a status the state machine does not allow from
// the current state, leaves the order untouched.
func (r *OrderRepository) ApplyPaymentStatus(ctx context.Context, reference string, target models.OrderStatus) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := scanOrder(tx.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE payment_reference = $1 FOR UPDATE", reference))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to lock order by reference: %w", err)
	}

	if order.Status == target || !models.CanTransition(order.Status, target) {
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit reconcile: %w", err)
		}
		return order, nil
	}

	if target == models.OrderPaid {
		if order.OwnerID == nil {
			return nil, &models.UnassignedOrderError{OrderID: order.ID}
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE tickets SET valid = TRUE, owner_id = $2 WHERE order_id = $1",
			order.ID, *order.OwnerID); err != nil {
			return nil, fmt.Errorf("failed to validate tickets: %w", err)
		}
	}

	order, err = scanOrder(tx.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+orderColumns,
		order.ID, target, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to apply payment status: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reconcile: %w", err)
	}

	return order, nil
}

// Approve forces an order into paid and validates its tickets, bypassing
// the payment gateway. Requires an owner; idempotent for already paid
// orders.
func (r *OrderRepository) Approve(ctx context.Context, orderID int) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if order.OwnerID == nil {
		return nil, &models.UnassignedOrderError{OrderID: orderID}
	}

	if order.Status == models.OrderPaid {
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit approval: %w", err)
		}
		return order, nil
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE tickets SET valid = TRUE, owner_id = $2 WHERE order_id = $1",
		orderID, *order.OwnerID); err != nil {
		return nil, fmt.Errorf("failed to validate tickets: %w", err)
	}

	order, err = scanOrder(tx.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+orderColumns,
		orderID, models.OrderPaid, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to approve order: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}

	return order, nil
}

// ExpireOrder deletes an order and its tickets and writes the audit record,
// all in one transaction. Pending and paid orders are never expired.
func (r *OrderRepository) ExpireOrder(ctx context.Context, orderID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return err
	}

	if !order.IsExpirable() {
		return &models.ImmutableOrderError{OrderID: orderID, Status: order.Status}
	}

	if err := expireOrderTx(ctx, tx, order); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order expiry: %w", err)
	}

	return nil
}

// expireOrderTx writes the audit record and deletes the order's tickets and
// the order itself. Callers must hold the order row lock.
func expireOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	count, _, err := orderTicketStatsTx(ctx, tx, order.ID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO expired_orders (order_id, owner_id, ticket_count, order_created_at, expired_at)
		VALUES ($1, $2, $3, $4, $5)`,
		order.ID, order.OwnerID, count, order.CreatedAt, time.Now()); err != nil {
		return fmt.Errorf("failed to write expired order record: %w", err)
	}

	// Seats referencing these tickets are released by ON DELETE SET NULL.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM ticket_enabled_options
		WHERE ticket_id IN (SELECT id FROM tickets WHERE order_id = $1)`, order.ID); err != nil {
		return fmt.Errorf("failed to delete ticket options: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tickets WHERE order_id = $1", order.ID); err != nil {
		return fmt.Errorf("failed to delete tickets: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM orders WHERE id = $1", order.ID); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by id
func (r *OrderRepository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// GetByReference retrieves an order by its provider payment reference
func (r *OrderRepository) GetByReference(ctx context.Context, reference string) (*models.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE payment_reference = $1", reference))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by reference: %w", err)
	}
	return order, nil
}

// FindExpirable retrieves orders older than the cutoff that never reached
// pending or paid, or already sit in a terminal undeleted state
func (r *OrderRepository) FindExpirable(ctx context.Context, cutoff time.Time) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE created_at < $1 AND status = ANY($2)
		ORDER BY created_at ASC`,
		cutoff,
		[]string{
			string(models.OrderAnonymous),
			string(models.OrderAssigned),
			string(models.OrderExpired),
			string(models.OrderCancelled),
		})
	if err != nil {
		return nil, fmt.Errorf("failed to find expirable orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expirable order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expirable orders: %w", err)
	}

	return orders, nil
}
