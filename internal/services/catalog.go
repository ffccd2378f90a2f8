package services

import (
	"context"

	"go.uber.org/zap"

	"ticketshop/internal/models"
)

// CatalogStore is the ticket type persistence surface the catalog service
// depends on
type CatalogStore interface {
	CreateTicketType(ctx context.Context, req *models.TicketTypeCreateRequest) (*models.TicketType, error)
	UpdateTicketType(ctx context.Context, id int, req *models.TicketTypeUpdateRequest) (*models.TicketType, error)
	GetByID(ctx context.Context, id int) (*models.TicketType, error)
	GetAll(ctx context.Context) ([]*models.TicketType, error)
	CreateOption(ctx context.Context, req *models.TicketOptionCreateRequest) (*models.TicketOption, error)
	GetAllOptions(ctx context.Context) ([]*models.TicketOption, error)
}

// CatalogService manages the ticket type and option catalog
type CatalogService struct {
	store  CatalogStore
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore, logger *zap.Logger) *CatalogService {
	return &CatalogService{store: store, logger: logger}
}

// CreateTicketType creates a ticket type with its allowed option set
func (s *CatalogService) CreateTicketType(ctx context.Context, req *models.TicketTypeCreateRequest) (*models.TicketType, error) {
	ticketType, err := s.store.CreateTicketType(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket type created",
		zap.Int("ticket_type_id", ticketType.ID),
		zap.String("name", ticketType.Name))

	return ticketType, nil
}

// UpdateTicketType updates a ticket type. Already sold tickets keep their
// price and enabled options; changes only affect future allocations.
func (s *CatalogService) UpdateTicketType(ctx context.Context, id int, req *models.TicketTypeUpdateRequest) (*models.TicketType, error) {
	ticketType, err := s.store.UpdateTicketType(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket type updated",
		zap.Int("ticket_type_id", id))

	return ticketType, nil
}

// GetTicketType retrieves a single ticket type with options and sold count
func (s *CatalogService) GetTicketType(ctx context.Context, id int) (*models.TicketType, error) {
	return s.store.GetByID(ctx, id)
}

// ListTicketTypes retrieves the full catalog
func (s *CatalogService) ListTicketTypes(ctx context.Context) ([]*models.TicketType, error) {
	return s.store.GetAll(ctx)
}

// CreateOption creates a ticket option
func (s *CatalogService) CreateOption(ctx context.Context, req *models.TicketOptionCreateRequest) (*models.TicketOption, error) {
	option, err := s.store.CreateOption(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket option created",
		zap.Int("option_id", option.ID),
		zap.String("name", option.Name))

	return option, nil
}

// ListOptions retrieves every ticket option
func (s *CatalogService) ListOptions(ctx context.Context) ([]*models.TicketOption, error) {
	return s.store.GetAllOptions(ctx)
}
