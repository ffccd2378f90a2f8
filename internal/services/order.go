package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"ticketshop/internal/config"
	"ticketshop/internal/models"
	"ticketshop/internal/monitoring"
)

// OrderStore is the order persistence surface the order service depends on
type OrderStore interface {
	CreateWithTicket(ctx context.Context, typeID int, optionIDs []int, eventLimit int) (*models.Order, error)
	AddTicket(ctx context.Context, orderID, typeID int, optionIDs []int, orderLimit, eventLimit int) (*models.Ticket, error)
	RemoveTicket(ctx context.Context, orderID, ticketID int) error
	AssignToUser(ctx context.Context, orderID, userID int) (*models.Order, error)
	MarkPending(ctx context.Context, orderID int, reference string, registeredCount, registeredTotal int) (*models.Order, error)
	ApplyPaymentStatus(ctx context.Context, reference string, target models.OrderStatus) (*models.Order, error)
	Approve(ctx context.Context, orderID int) (*models.Order, error)
	ExpireOrder(ctx context.Context, orderID int) error
	FindExpirable(ctx context.Context, cutoff time.Time) ([]*models.Order, error)
	GetByID(ctx context.Context, id int) (*models.Order, error)
	GetByReference(ctx context.Context, reference string) (*models.Order, error)
}

// TicketStore is the ticket persistence surface the order service depends on
type TicketStore interface {
	GetByID(ctx context.Context, id int) (*models.Ticket, error)
	GetByOrder(ctx context.Context, orderID int) ([]*models.Ticket, error)
}

// OrderService drives orders through the payment state machine
type OrderService struct {
	orders  OrderStore
	tickets TicketStore
	payment PaymentService
	sales   config.SalesConfig
	logger  *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(orders OrderStore, tickets TicketStore, payment PaymentService, sales config.SalesConfig, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:  orders,
		tickets: tickets,
		payment: payment,
		sales:   sales,
		logger:  logger,
	}
}

// CreateOrder creates a new anonymous order holding one ticket of the given type
func (s *OrderService) CreateOrder(ctx context.Context, typeID int, optionIDs []int) (*models.Order, error) {
	order, err := s.orders.CreateWithTicket(ctx, typeID, optionIDs, s.sales.EventTicketLimit)
	if err != nil {
		recordAllocationFailure(err)
		return nil, err
	}

	for _, ticket := range order.Tickets {
		recordAllocation(ticket)
	}
	s.logger.Info("order created",
		zap.Int("order_id", order.ID),
		zap.Int("ticket_type_id", typeID))

	return order, nil
}

// AddTicket allocates another ticket of the given type into an order
func (s *OrderService) AddTicket(ctx context.Context, orderID, typeID int, optionIDs []int) (*models.Ticket, error) {
	ticket, err := s.orders.AddTicket(ctx, orderID, typeID, optionIDs, s.sales.OrderTicketLimit, s.sales.EventTicketLimit)
	if err != nil {
		recordAllocationFailure(err)
		return nil, err
	}

	recordAllocation(ticket)
	s.logger.Info("ticket added",
		zap.Int("order_id", orderID),
		zap.Int("ticket_id", ticket.ID),
		zap.Int("ticket_type_id", typeID))

	return ticket, nil
}

// RemoveTicket removes a ticket from an order, releasing its slot
func (s *OrderService) RemoveTicket(ctx context.Context, orderID, ticketID int) error {
	if err := s.orders.RemoveTicket(ctx, orderID, ticketID); err != nil {
		return err
	}

	s.logger.Info("ticket removed",
		zap.Int("order_id", orderID),
		zap.Int("ticket_id", ticketID))

	return nil
}

// AssignToUser binds an anonymous order to a user, expiring any other open
// order that user had
func (s *OrderService) AssignToUser(ctx context.Context, orderID, userID int) (*models.Order, error) {
	order, err := s.orders.AssignToUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	monitoring.OrderTransitions.WithLabelValues(string(models.OrderAssigned)).Inc()
	s.logger.Info("order assigned",
		zap.Int("order_id", orderID),
		zap.Int("user_id", userID))

	return order, nil
}

// RequestPayment registers the order with the payment provider and moves it
// to pending. The gateway call happens outside any database transaction; the
// pending transition re-checks the ticket count and total against what was
// registered.
func (s *OrderService) RequestPayment(ctx context.Context, orderID int) (string, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}

	if order.Status == models.OrderAnonymous {
		return "", &models.UnassignedOrderError{OrderID: orderID}
	}
	if order.Status == models.OrderPending {
		// Re-entry into checkout: hand back the existing payment URL.
		return s.payment.PaymentURL(ctx, order.PaymentReference)
	}
	if order.Status != models.OrderAssigned {
		return "", &models.ImmutableOrderError{OrderID: orderID, Status: order.Status}
	}

	total := order.Total()
	if total <= 0 {
		return "", &models.EmptyOrderError{OrderID: orderID}
	}

	reference, paymentURL, err := s.payment.RegisterOrder(ctx, order, total)
	if err != nil {
		s.logger.Error("payment registration failed",
			zap.Int("order_id", orderID),
			zap.Error(err))
		return "", err
	}

	if _, err := s.orders.MarkPending(ctx, orderID, reference, len(order.Tickets), total); err != nil {
		s.logger.Error("pending transition failed after registration",
			zap.Int("order_id", orderID),
			zap.String("reference", reference),
			zap.Error(err))
		return "", err
	}

	monitoring.OrderTransitions.WithLabelValues(string(models.OrderPending)).Inc()
	s.logger.Info("payment requested",
		zap.Int("order_id", orderID),
		zap.String("reference", reference),
		zap.Int("amount", total))

	return paymentURL, nil
}

// Reconcile fetches the provider status for a payment reference and applies
// it to the order. Safe to call any number of times for the same reference.
func (s *OrderService) Reconcile(ctx context.Context, reference string) (*models.Order, error) {
	status, err := s.payment.UpdateStatus(ctx, reference)
	if err != nil {
		s.logger.Error("payment status fetch failed",
			zap.String("reference", reference),
			zap.Error(err))
		return nil, err
	}

	target, ok := MapProviderStatus(status)
	if !ok {
		s.logger.Warn("unknown provider payment status",
			zap.String("reference", reference),
			zap.String("status", status))
		return s.orders.GetByReference(ctx, reference)
	}

	order, err := s.orders.ApplyPaymentStatus(ctx, reference, target)
	if err != nil {
		return nil, err
	}

	if order.Status == target {
		monitoring.OrderTransitions.WithLabelValues(string(target)).Inc()
	}
	s.logger.Info("payment reconciled",
		zap.String("reference", reference),
		zap.String("provider_status", status),
		zap.String("order_status", string(order.Status)))

	return order, nil
}

// Approve marks an order as paid without involving the payment provider
func (s *OrderService) Approve(ctx context.Context, orderID int) (*models.Order, error) {
	order, err := s.orders.Approve(ctx, orderID)
	if err != nil {
		return nil, err
	}

	monitoring.OrderTransitions.WithLabelValues(string(models.OrderPaid)).Inc()
	s.logger.Info("order approved",
		zap.Int("order_id", orderID))

	return order, nil
}

// Giveaway creates an order for a user and approves it immediately, issuing
// free valid tickets
func (s *OrderService) Giveaway(ctx context.Context, userID, typeID int, optionIDs []int) (*models.Order, error) {
	order, err := s.CreateOrder(ctx, typeID, optionIDs)
	if err != nil {
		return nil, err
	}

	if _, err := s.orders.AssignToUser(ctx, order.ID, userID); err != nil {
		return nil, err
	}

	order, err = s.Approve(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("giveaway issued",
		zap.Int("order_id", order.ID),
		zap.Int("user_id", userID),
		zap.Int("ticket_type_id", typeID))

	return order, nil
}

// Expire reclaims a single order
func (s *OrderService) Expire(ctx context.Context, orderID int) error {
	if err := s.orders.ExpireOrder(ctx, orderID); err != nil {
		return err
	}

	monitoring.OrdersExpired.Inc()
	s.logger.Info("order expired", zap.Int("order_id", orderID))

	return nil
}

// GetOrder retrieves an order with its tickets populated
func (s *OrderService) GetOrder(ctx context.Context, orderID int) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.Tickets, err = s.tickets.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return order, nil
}

// SyncStatus reconciles an order against the payment provider if it has
// been registered there, then returns the order with tickets. This is the
// manual counterpart of the provider webhook; both funnel into Reconcile.
func (s *OrderService) SyncStatus(ctx context.Context, orderID int) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentReference != "" {
		if _, err := s.Reconcile(ctx, order.PaymentReference); err != nil {
			return nil, err
		}
	}

	return s.GetOrder(ctx, orderID)
}

func recordAllocation(ticket *models.Ticket) {
	name := ""
	if ticket.Type != nil {
		name = ticket.Type.Name
	}
	monitoring.TicketsAllocated.WithLabelValues(name).Inc()
}

func recordAllocationFailure(err error) {
	var unavailable *models.TicketUnavailableError
	var unsupported *models.OptionNotSupportedError
	var full *models.OrderFullError

	switch {
	case errors.As(err, &unavailable):
		monitoring.AllocationFailures.WithLabelValues(unavailable.Reason).Inc()
	case errors.As(err, &unsupported):
		monitoring.AllocationFailures.WithLabelValues("option not supported").Inc()
	case errors.As(err, &full):
		monitoring.AllocationFailures.WithLabelValues("order full").Inc()
	default:
		monitoring.AllocationFailures.WithLabelValues("error").Inc()
	}
}
