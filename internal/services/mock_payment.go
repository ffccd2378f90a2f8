package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"ticketshop/internal/models"
)

// MockPaymentService simulates a payment provider for development and
// tests. Registered payments start as open; tests flip statuses directly
// with SetStatus.
type MockPaymentService struct {
	mu       sync.Mutex
	statuses map[string]string
}

// NewMockPaymentService creates a new mock payment service
func NewMockPaymentService() *MockPaymentService {
	return &MockPaymentService{statuses: make(map[string]string)}
}

// RegisterOrder registers a simulated payment and returns a generated reference
func (s *MockPaymentService) RegisterOrder(ctx context.Context, order *models.Order, amount int) (string, string, error) {
	reference := "mock_" + uuid.NewString()

	s.mu.Lock()
	s.statuses[reference] = ProviderStatusOpen
	s.mu.Unlock()

	return reference, "https://payments.example.com/checkout/" + reference, nil
}

// UpdateStatus returns the simulated payment status for a reference
func (s *MockPaymentService) UpdateStatus(ctx context.Context, reference string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.statuses[reference]
	if !ok {
		return "", &models.PaymentError{Op: "GET /payments/" + reference, Detail: "unknown payment reference"}
	}
	return status, nil
}

// PaymentURL returns the simulated checkout URL for a reference
func (s *MockPaymentService) PaymentURL(ctx context.Context, reference string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.statuses[reference]; !ok {
		return "", &models.PaymentError{Op: "GET /payments/" + reference, Detail: "unknown payment reference"}
	}
	return "https://payments.example.com/checkout/" + reference, nil
}

// SetStatus sets the simulated status of a payment
func (s *MockPaymentService) SetStatus(reference, status string) {
	s.mu.Lock()
	s.statuses[reference] = status
	s.mu.Unlock()
}
