package repository

import (
	"context"

	"kiosk-pos/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the stock operations order placement performs on
// the product catalogue.
type ProductRepository interface {
	// LockStock reads a product's in_stock under an exclusive row lock held
	// until tx ends. Returns model.ErrProductNotFound for unknown IDs.
	LockStock(ctx context.Context, tx pgx.Tx, id string) (int, error)

	// DecrementStock subtracts quantity from a product's in_stock within tx.
	DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// NextOrderNumber returns max(order_number)+1. Allocation is serialised
	// until tx ends.
	NextOrderNumber(ctx context.Context, tx pgx.Tx) (int64, error)

	// CreateOrder inserts an order header within the provided transaction.
	// A pickup-code collision returns model.ErrPickupCodeTaken and leaves tx
	// usable.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// ListRows returns the order/item join for all orders, newest first.
	// With activeOnly set, completed and cancelled orders are skipped.
	ListRows(ctx context.Context, activeOnly bool) ([]model.OrderRow, error)

	// GetRowsByID returns the join rows of a single order.
	GetRowsByID(ctx context.Context, id uuid.UUID) ([]model.OrderRow, error)

	// GetRowsByPickupCode returns the join rows of the order holding code.
	GetRowsByPickupCode(ctx context.Context, code string) ([]model.OrderRow, error)

	// LockState reads an order's mutable fields under a row lock.
	// Returns model.ErrOrderNotFound for unknown IDs.
	LockState(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.OrderState, error)

	// UpdateState writes the non-nil fields of patch and bumps updated_at.
	// Returns model.ErrOrderNotFound when no row matched.
	UpdateState(ctx context.Context, tx pgx.Tx, id uuid.UUID, patch model.UpdateOrderRequest) error
}
