package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ticketshop/internal/config"
	"ticketshop/internal/models"
	"ticketshop/internal/services"
)

// stubOrderStore serves a single order and records applied payment statuses
type stubOrderStore struct {
	order   *models.Order
	applied []models.OrderStatus
}

func (s *stubOrderStore) CreateWithTicket(ctx context.Context, typeID int, optionIDs []int, eventLimit int) (*models.Order, error) {
	return s.order, nil
}

func (s *stubOrderStore) AddTicket(ctx context.Context, orderID, typeID int, optionIDs []int, orderLimit, eventLimit int) (*models.Ticket, error) {
	return nil, models.ErrOrderNotFound
}

func (s *stubOrderStore) RemoveTicket(ctx context.Context, orderID, ticketID int) error {
	return models.ErrOrderNotFound
}

func (s *stubOrderStore) AssignToUser(ctx context.Context, orderID, userID int) (*models.Order, error) {
	return s.order, nil
}

func (s *stubOrderStore) MarkPending(ctx context.Context, orderID int, reference string, registeredCount, registeredTotal int) (*models.Order, error) {
	return s.order, nil
}

func (s *stubOrderStore) ApplyPaymentStatus(ctx context.Context, reference string, target models.OrderStatus) (*models.Order, error) {
	if s.order == nil || s.order.PaymentReference != reference {
		return nil, models.ErrOrderNotFound
	}
	s.applied = append(s.applied, target)
	if models.CanTransition(s.order.Status, target) {
		s.order.Status = target
	}
	return s.order, nil
}

func (s *stubOrderStore) Approve(ctx context.Context, orderID int) (*models.Order, error) {
	return s.order, nil
}

func (s *stubOrderStore) ExpireOrder(ctx context.Context, orderID int) error {
	return nil
}

func (s *stubOrderStore) FindExpirable(ctx context.Context, cutoff time.Time) ([]*models.Order, error) {
	return nil, nil
}

func (s *stubOrderStore) GetByID(ctx context.Context, id int) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, models.ErrOrderNotFound
	}
	return s.order, nil
}

func (s *stubOrderStore) GetByReference(ctx context.Context, reference string) (*models.Order, error) {
	if s.order == nil || s.order.PaymentReference != reference {
		return nil, models.ErrOrderNotFound
	}
	return s.order, nil
}

// stubTicketStore returns no tickets
type stubTicketStore struct{}

func (s *stubTicketStore) GetByID(ctx context.Context, id int) (*models.Ticket, error) {
	return nil, models.ErrTicketNotFound
}

func (s *stubTicketStore) GetByOrder(ctx context.Context, orderID int) ([]*models.Ticket, error) {
	return nil, nil
}

func postWebhook(router http.Handler, reference string) *httptest.ResponseRecorder {
	form := url.Values{}
	if reference != "" {
		form.Set("id", reference)
	}
	req := httptest.NewRequest(http.MethodPost, "/orders/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestPaymentWebhook(t *testing.T) {
	gin.SetMode(gin.TestMode)

	owner := 42
	store := &stubOrderStore{order: &models.Order{
		ID:               1,
		Status:           models.OrderPending,
		OwnerID:          &owner,
		PaymentReference: "tr_abc123",
	}}

	payment := services.NewMockPaymentService()
	payment.SetStatus("tr_abc123", services.ProviderStatusPaid)

	redisClient, redisMock := redismock.NewClientMock()
	guard := services.NewCallbackGuard(redisClient, time.Minute, zap.NewNop())

	logger := zap.NewNop()
	orderService := services.NewOrderService(store, &stubTicketStore{}, payment, config.SalesConfig{OrderTicketLimit: 5}, logger)
	handler := NewOrderHandler(orderService, guard, logger)

	router := gin.New()
	router.POST("/orders/status", handler.PaymentWebhook)

	t.Run("processes first callback", func(t *testing.T) {
		redisMock.ExpectSetNX("webhook:tr_abc123", 1, time.Minute).SetVal(true)

		recorder := postWebhook(router, "tr_abc123")
		assert.Equal(t, http.StatusOK, recorder.Code)
		require.Len(t, store.applied, 1)
		assert.Equal(t, models.OrderPaid, store.applied[0])
	})

	t.Run("suppresses duplicate callback", func(t *testing.T) {
		redisMock.ExpectSetNX("webhook:tr_abc123", 1, time.Minute).SetVal(false)

		recorder := postWebhook(router, "tr_abc123")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Len(t, store.applied, 1)
	})

	t.Run("ignores missing reference", func(t *testing.T) {
		recorder := postWebhook(router, "")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Len(t, store.applied, 1)
	})

	t.Run("answers 200 for unknown reference", func(t *testing.T) {
		payment.SetStatus("tr_unknown", services.ProviderStatusPaid)
		redisMock.ExpectSetNX("webhook:tr_unknown", 1, time.Minute).SetVal(true)
		redisMock.ExpectDel("webhook:tr_unknown").SetVal(1)

		recorder := postWebhook(router, "tr_unknown")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("accepts reference as query parameter", func(t *testing.T) {
		redisMock.ExpectSetNX("webhook:tr_abc123", 1, time.Minute).SetVal(true)

		req := httptest.NewRequest(http.MethodPost, "/orders/status?id=tr_abc123", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Len(t, store.applied, 2)
	})
}

func TestCreateOrderSetsLocation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &stubOrderStore{order: &models.Order{ID: 7, Status: models.OrderAnonymous}}
	logger := zap.NewNop()
	orderService := services.NewOrderService(store, &stubTicketStore{}, services.NewMockPaymentService(), config.SalesConfig{OrderTicketLimit: 5}, logger)

	redisClient, _ := redismock.NewClientMock()
	guard := services.NewCallbackGuard(redisClient, time.Minute, zap.NewNop())
	handler := NewOrderHandler(orderService, guard, logger)

	router := gin.New()
	router.POST("/orders", handler.CreateOrder)

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"ticket_type_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, "/orders/7", recorder.Header().Get("Location"))
}
