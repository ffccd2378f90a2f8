package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"ticketshop/internal/config"
	"ticketshop/internal/models"
	"ticketshop/internal/monitoring"
)

// MolliePaymentService handles payments via the Mollie API
type MolliePaymentService struct {
	config config.MollieConfig
	client *http.Client
}

// NewMolliePaymentService creates a new Mollie payment service
func NewMolliePaymentService(cfg config.MollieConfig) *MolliePaymentService {
	return &MolliePaymentService{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// MollieAmount represents a monetary value in the Mollie API
type MollieAmount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// MollieCreatePaymentRequest represents a payment creation request
type MollieCreatePaymentRequest struct {
	Amount      MollieAmount      `json:"amount"`
	Description string            `json:"description"`
	RedirectURL string            `json:"redirectUrl"`
	WebhookURL  string            `json:"webhookUrl,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// MolliePaymentResponse represents a payment resource response
type MolliePaymentResponse struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	Amount      MollieAmount `json:"amount"`
	Description string       `json:"description"`
	Links       struct {
		Checkout struct {
			Href string `json:"href"`
		} `json:"checkout"`
	} `json:"_links"`
	Detail string `json:"detail,omitempty"`
}

// RegisterOrder creates a Mollie payment for the order total and returns
// the provider reference and checkout URL
func (s *MolliePaymentService) RegisterOrder(ctx context.Context, order *models.Order, amount int) (string, string, error) {
	request := MollieCreatePaymentRequest{
		Amount: MollieAmount{
			Currency: "EUR",
			Value:    formatCents(amount),
		},
		Description: fmt.Sprintf("Ticket order %d", order.ID),
		RedirectURL: s.config.RedirectURL,
		WebhookURL:  s.config.WebhookURL,
		Metadata: map[string]string{
			"order_id": strconv.Itoa(order.ID),
		},
	}

	var response MolliePaymentResponse
	if err := s.doRequest(ctx, http.MethodPost, "/payments", &request, &response); err != nil {
		return "", "", err
	}

	return response.ID, response.Links.Checkout.Href, nil
}

// UpdateStatus fetches the current payment status from Mollie
func (s *MolliePaymentService) UpdateStatus(ctx context.Context, reference string) (string, error) {
	var response MolliePaymentResponse
	if err := s.doRequest(ctx, http.MethodGet, "/payments/"+reference, nil, &response); err != nil {
		return "", err
	}
	return response.Status, nil
}

// PaymentURL returns the checkout URL of an existing payment
func (s *MolliePaymentService) PaymentURL(ctx context.Context, reference string) (string, error) {
	var response MolliePaymentResponse
	if err := s.doRequest(ctx, http.MethodGet, "/payments/"+reference, nil, &response); err != nil {
		return "", err
	}
	return response.Links.Checkout.Href, nil
}

// doRequest performs an authenticated Mollie API call and decodes the response
func (s *MolliePaymentService) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	operation := method + " " + path
	timer := time.Now()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &models.PaymentUnreachableError{Op: operation, Err: err}
	}
	defer resp.Body.Close()

	monitoring.PaymentGatewayDuration.WithLabelValues(method).Observe(time.Since(timer).Seconds())

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.PaymentUnreachableError{Op: operation, Err: err}
	}

	if resp.StatusCode == http.StatusNotFound {
		// Unknown payment reference.
		return models.ErrOrderNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure MolliePaymentResponse
		detail := string(data)
		if json.Unmarshal(data, &failure) == nil && failure.Detail != "" {
			detail = failure.Detail
		}
		return &models.PaymentError{Op: operation, Detail: detail}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// formatCents renders an integer cent amount as a Mollie decimal string
func formatCents(amount int) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}
