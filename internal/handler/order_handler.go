package handler

import (
	"net/http"
	"strconv"

	"kiosk-pos/internal/middleware"
	"kiosk-pos/internal/model"
	"kiosk-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests from the kiosk.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// Search handles GET /api/orders/search/{code} requests.
func (h *OrderHandler) Search(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetByPickupCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// List handles GET /api/orders. With ?active=true only orders that are
// neither completed nor cancelled are returned.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "active must be a boolean")
			return
		}
		activeOnly = parsed
	}

	var (
		orders []model.Order
		err    error
	)
	if activeOnly {
		orders, err = h.service.GetActiveOrders(r.Context())
	} else {
		orders, err = h.service.GetOrders(r.Context())
	}
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// Get handles GET /api/orders/{id} requests.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Update handles PATCH and PUT /api/orders/{id} requests from staff.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req model.UpdateOrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	order, err := h.service.UpdateOrder(r.Context(), orderID, req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	event := h.logger.Info().Str("order_id", orderID.String())
	if staff, ok := middleware.StaffFromContext(r.Context()); ok {
		event = event.Str("staff_id", staff.StaffID).Str("role", staff.Role)
	}
	event.Msg("order updated by staff")

	writeJSON(w, http.StatusOK, model.UpdateOrderResponse{Success: true, Order: order})
}

func (h *OrderHandler) orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidOrderID, "invalid order ID format")
		return uuid.Nil, false
	}
	return id, true
}
