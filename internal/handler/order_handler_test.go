package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kiosk-pos/internal/middleware"
	"kiosk-pos/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetOrders(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) GetActiveOrders(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetByPickupCode(ctx context.Context, code string) (*model.Order, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrder(ctx context.Context, id uuid.UUID, req model.UpdateOrderRequest) (*model.Order, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) UpdatePayment(ctx context.Context, id uuid.UUID, status model.PaymentStatus, method *model.PaymentMethod) (*model.Order, error) {
	args := m.Called(ctx, id, status, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func newTestRouter(h *OrderHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Post("/api/orders", h.Create)
	r.Get("/api/orders", h.List)
	r.Get("/api/orders/search/{code}", h.Search)
	r.Get("/api/orders/{id}", h.Get)
	r.Patch("/api/orders/{id}", h.Update)
	return r
}

func sampleOrder() *model.Order {
	id := uuid.New()
	cash := model.PaymentCash
	return &model.Order{
		ID:            id,
		PickupCode:    "0427",
		OrderNumber:   12,
		TotalAmount:   decimal.RequireFromString("300.00"),
		Status:        model.StatusPending,
		PaymentMethod: &cash,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
		Items: []model.OrderItem{
			{ID: uuid.New(), OrderID: id, Name: "Burger", Quantity: 2, Price: decimal.RequireFromString("120.00"), TotalPrice: decimal.RequireFromString("240.00")},
		},
	}
}

func decodeError(t *testing.T, body *bytes.Buffer) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func TestOrderHandler_Create(t *testing.T) {
	order := sampleOrder()

	tests := []struct {
		name           string
		body           string
		mockReturn     *model.Order
		mockError      error
		expectService  bool
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			body:           `{"payment_method":"cash","items":[{"name":"Burger","quantity":2,"price":120,"product_id":"P001","image":"burger.png"}]}`,
			mockReturn:     order,
			expectService:  true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Malformed JSON",
			body:           `{"items":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Missing items",
			body:           `{"payment_method":"cash"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeNoItems,
		},
		{
			name:           "Empty items",
			body:           `{"items":[]}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeNoItems,
		},
		{
			name:           "Zero quantity",
			body:           `{"items":[{"name":"Burger","quantity":0,"price":120}]}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidItem,
		},
		{
			name:           "Quantity beyond int32",
			body:           `{"items":[{"name":"Burger","quantity":2147483648,"price":120}]}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidItem,
		},
		{
			name:           "Missing item name",
			body:           `{"items":[{"quantity":1,"price":120}]}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidItem,
		},
		{
			name:           "Unknown payment method",
			body:           `{"payment_method":"card","items":[{"name":"Burger","quantity":1,"price":120}]}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidPaymentMethod,
		},
		{
			name:           "Insufficient stock",
			body:           `{"items":[{"name":"Halo-Halo","quantity":2,"price":85,"product_id":"P003"}]}`,
			mockError:      model.ErrInsufficientStock.WithMessage("insufficient stock for product P003: requested 2, available 1"),
			expectService:  true,
			expectedStatus: http.StatusConflict,
			expectedCode:   model.ErrCodeInsufficientStock,
		},
		{
			name:           "Unknown product",
			body:           `{"items":[{"name":"Ghost","quantity":1,"price":1,"product_id":"P999"}]}`,
			mockError:      model.ErrProductNotFound,
			expectService:  true,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   model.ErrCodeProductNotFound,
		},
		{
			name:           "Code generation exhausted",
			body:           `{"items":[{"name":"Burger","quantity":1,"price":120}]}`,
			mockError:      model.ErrCodeGenerationExhausted,
			expectService:  true,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeCodeGenerationExhausted,
		},
		{
			name:           "Storage failure is hidden",
			body:           `{"items":[{"name":"Burger","quantity":1,"price":120}]}`,
			mockError:      errors.New("connection refused"),
			expectService:  true,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			if tt.expectService {
				mockService.On("CreateOrder", mock.Anything, mock.AnythingOfType("*model.CreateOrderRequest")).
					Return(tt.mockReturn, tt.mockError)
			}

			router := newTestRouter(NewOrderHandler(mockService, zerolog.Nop()))
			req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				resp := decodeError(t, w.Body)
				assert.Equal(t, tt.expectedCode, resp.Error)
				assert.NotEmpty(t, resp.CorrelationID)
				assert.NotContains(t, resp.Message, "connection refused")
			} else {
				var got model.Order
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, "0427", got.PickupCode)
				assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(300)))
			}

			if tt.expectService {
				mockService.AssertExpectations(t)
			} else {
				mockService.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestOrderHandler_Create_PassesDecodedRequest(t *testing.T) {
	mockService := new(MockOrderService)
	mockService.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req *model.CreateOrderRequest) bool {
		return len(req.Items) == 2 &&
			req.Items[0].ProductID != nil && *req.Items[0].ProductID == "P001" &&
			req.Items[1].ProductID == nil &&
			req.Items[1].Price.Equal(decimal.RequireFromString("12.50")) &&
			req.CustomerID != nil && *req.CustomerID == "walk-in"
	})).Return(sampleOrder(), nil)

	router := newTestRouter(NewOrderHandler(mockService, zerolog.Nop()))
	body := `{"customer_id":"walk-in","items":[{"product_id":"P001","name":"Burger","quantity":1,"price":"120.00"},{"name":"Extra sauce","quantity":1,"price":12.5}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_Search(t *testing.T) {
	tests := []struct {
		name           string
		code           string
		mockReturn     *model.Order
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{"Found", "0427", sampleOrder(), nil, http.StatusOK, ""},
		{"Not found", "9999", nil, model.ErrOrderNotFound, http.StatusNotFound, model.ErrCodeOrderNotFound},
		{"Malformed code", "12a4", nil, model.ErrInvalidCode, http.StatusBadRequest, model.ErrCodeInvalidCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			mockService.On("GetByPickupCode", mock.Anything, tt.code).Return(tt.mockReturn, tt.mockError)

			router := newTestRouter(NewOrderHandler(mockService, zerolog.Nop()))
			req := httptest.NewRequest(http.MethodGet, "/api/orders/search/"+tt.code, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w.Body).Error)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_List(t *testing.T) {
	t.Run("All orders", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("GetOrders", mock.Anything).Return([]model.Order{*sampleOrder(), *sampleOrder()}, nil)

		w := httptest.NewRecorder()
		newTestRouter(NewOrderHandler(mockService, zerolog.Nop())).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var got []model.Order
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, 2)
		mockService.AssertNotCalled(t, "GetActiveOrders", mock.Anything)
	})

	t.Run("Active only", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("GetActiveOrders", mock.Anything).Return([]model.Order{}, nil)

		w := httptest.NewRecorder()
		newTestRouter(NewOrderHandler(mockService, zerolog.Nop())).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders?active=true", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
		mockService.AssertNotCalled(t, "GetOrders", mock.Anything)
	})

	t.Run("Nil slice renders as empty array", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("GetOrders", mock.Anything).Return([]model.Order(nil), nil)

		w := httptest.NewRecorder()
		newTestRouter(NewOrderHandler(mockService, zerolog.Nop())).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("Bad active flag", func(t *testing.T) {
		mockService := new(MockOrderService)

		w := httptest.NewRecorder()
		newTestRouter(NewOrderHandler(mockService, zerolog.Nop())).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders?active=maybe", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestOrderHandler_Get(t *testing.T) {
	order := sampleOrder()

	tests := []struct {
		name           string
		path           string
		setup          func(m *MockOrderService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "Found",
			path: "/api/orders/" + order.ID.String(),
			setup: func(m *MockOrderService) {
				m.On("GetOrder", mock.Anything, order.ID).Return(order, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Not found",
			path: "/api/orders/" + order.ID.String(),
			setup: func(m *MockOrderService) {
				m.On("GetOrder", mock.Anything, order.ID).Return(nil, model.ErrOrderNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeOrderNotFound,
		},
		{
			name:           "Invalid UUID",
			path:           "/api/orders/not-a-uuid",
			setup:          func(m *MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidOrderID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			tt.setup(mockService)

			w := httptest.NewRecorder()
			newTestRouter(NewOrderHandler(mockService, zerolog.Nop())).
				ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w.Body).Error)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_Update(t *testing.T) {
	order := sampleOrder()
	ready := model.StatusReady
	paid := model.PaymentPaid

	tests := []struct {
		name           string
		body           string
		expectReq      *model.UpdateOrderRequest
		mockReturn     *model.Order
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Status update",
			body:           `{"status":"ready"}`,
			expectReq:      &model.UpdateOrderRequest{Status: &ready},
			mockReturn:     order,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Payment update",
			body:           `{"payment_status":"paid"}`,
			expectReq:      &model.UpdateOrderRequest{PaymentStatus: &paid},
			mockReturn:     order,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Unknown status rejected before service",
			body:           `{"status":"shipped"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidStatus,
		},
		{
			name:           "Empty patch",
			body:           `{}`,
			expectReq:      &model.UpdateOrderRequest{},
			mockError:      model.ErrNoFieldsToUpdate,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeNoFieldsToUpdate,
		},
		{
			name:           "Order missing",
			body:           `{"status":"ready"}`,
			expectReq:      &model.UpdateOrderRequest{Status: &ready},
			mockError:      model.ErrOrderNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeOrderNotFound,
		},
		{
			name:           "Transition refused",
			body:           `{"status":"ready"}`,
			expectReq:      &model.UpdateOrderRequest{Status: &ready},
			mockError:      model.ErrInvalidTransition,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   model.ErrCodeInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			if tt.expectReq != nil {
				mockService.On("UpdateOrder", mock.Anything, order.ID, *tt.expectReq).Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPatch, "/api/orders/"+order.ID.String(), bytes.NewBufferString(tt.body))
			req = req.WithContext(middleware.WithStaff(req.Context(), &middleware.StaffClaims{StaffID: "EMP-0001", Role: middleware.RoleCashier}))
			w := httptest.NewRecorder()

			newTestRouter(NewOrderHandler(mockService, zerolog.Nop())).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w.Body).Error)
			} else {
				var resp model.UpdateOrderResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.True(t, resp.Success)
				require.NotNil(t, resp.Order)
				assert.Equal(t, order.ID, resp.Order.ID)
			}
			mockService.AssertExpectations(t)
		})
	}
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthHandler_Check(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler(stubPinger{}).Check(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	NewHealthHandler(stubPinger{err: errors.New("down")}).Check(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
