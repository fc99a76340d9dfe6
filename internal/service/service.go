package service

import (
	"context"

	"kiosk-pos/internal/model"

	"github.com/google/uuid"
)

// OrderService is the order engine: placement, read-side aggregation and
// status/payment updates.
type OrderService interface {
	// CreateOrder places an order atomically: header, items and stock
	// decrements commit together or not at all.
	CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error)

	// GetOrders returns every order with its items, newest first.
	GetOrders(ctx context.Context) ([]model.Order, error)

	// GetActiveOrders returns orders that are neither completed nor
	// cancelled, newest first.
	GetActiveOrders(ctx context.Context) ([]model.Order, error)

	// GetOrder returns a single order with its items.
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByPickupCode returns the order holding a 4-digit pickup code.
	GetByPickupCode(ctx context.Context, code string) (*model.Order, error)

	// UpdateOrder applies a partial status/payment update.
	UpdateOrder(ctx context.Context, id uuid.UUID, req model.UpdateOrderRequest) (*model.Order, error)

	// UpdateStatus moves an order to a new fulfillment status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error)

	// UpdatePayment sets the payment status and, optionally, the method.
	UpdatePayment(ctx context.Context, id uuid.UUID, status model.PaymentStatus, method *model.PaymentMethod) (*model.Order, error)
}

// OrderServiceConfig tunes the order engine.
type OrderServiceConfig struct {
	// MaxCodeAttempts bounds pickup-code generation per order.
	MaxCodeAttempts int
	// EnforceTransitions rejects status and payment moves that are not in
	// the transition tables.
	EnforceTransitions bool
}

// DefaultOrderServiceConfig returns the production defaults.
func DefaultOrderServiceConfig() OrderServiceConfig {
	return OrderServiceConfig{
		MaxCodeAttempts:    20,
		EnforceTransitions: true,
	}
}
