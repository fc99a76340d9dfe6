package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known fulfillment status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further fulfillment transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentMethod is how the customer pays at the counter.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentGCash PaymentMethod = "gcash"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentGCash
}

// PaymentStatus is the settlement state of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Order represents a kiosk order together with its line items.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	CustomerID    *string         `json:"customer_id" db:"customer_id"`
	PickupCode    string          `json:"pickup_code" db:"pickup_code"`
	OrderNumber   int64           `json:"order_number" db:"order_number"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status        OrderStatus     `json:"status" db:"status"`
	PaymentMethod *PaymentMethod  `json:"payment_method" db:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status" db:"payment_status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	Items         []OrderItem     `json:"items"`
}

// OrderItem represents a line item in an order. Price is a snapshot taken
// when the order was placed.
type OrderItem struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	OrderID    uuid.UUID       `json:"order_id" db:"order_id"`
	LineNo     int             `json:"-" db:"line_no"`
	ProductID  *string         `json:"product_id" db:"product_id"`
	Name       string          `json:"name" db:"name"`
	Quantity   int             `json:"quantity" db:"quantity"`
	Price      decimal.Decimal `json:"price" db:"price"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// CreateOrderRequest represents the request payload for placing an order.
type CreateOrderRequest struct {
	CustomerID    *string                  `json:"customer_id,omitempty"`
	PaymentMethod *PaymentMethod           `json:"payment_method,omitempty" validate:"omitempty,oneof=cash gcash"`
	Items         []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// Upper bounds of the order columns: quantity is INTEGER, price is
// NUMERIC(10,2), line and order totals are NUMERIC(12,2).
const MaxItemQuantity = math.MaxInt32

var (
	MaxItemPrice   = decimal.RequireFromString("99999999.99")
	MaxOrderAmount = decimal.RequireFromString("9999999999.99")
)

// CreateOrderItemRequest represents a single line in an order request.
type CreateOrderItemRequest struct {
	ProductID *string         `json:"product_id,omitempty"`
	Name      string          `json:"name" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0,lte=2147483647"`
	Price     decimal.Decimal `json:"price"`
}

// UpdateOrderRequest is a partial update of an order's status fields. Nil
// fields are left untouched.
type UpdateOrderRequest struct {
	Status        *OrderStatus   `json:"status,omitempty" validate:"omitempty,oneof=pending preparing ready completed cancelled"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty" validate:"omitempty,oneof=cash gcash"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty" validate:"omitempty,oneof=pending paid refunded"`
}

// Empty reports whether the request carries no fields to write.
func (r UpdateOrderRequest) Empty() bool {
	return r.Status == nil && r.PaymentMethod == nil && r.PaymentStatus == nil
}

// UpdateOrderResponse is returned after a successful partial update.
type UpdateOrderResponse struct {
	Success bool   `json:"success"`
	Order   *Order `json:"order,omitempty"`
}

// OrderState is the mutable part of an order header, read under lock before
// a status or payment update.
type OrderState struct {
	ID            uuid.UUID
	PickupCode    string
	Status        OrderStatus
	PaymentMethod *PaymentMethod
	PaymentStatus PaymentStatus
	UpdatedAt     time.Time
}

// OrderRow is one row of the order/item outer join. Item is nil for an order
// without items.
type OrderRow struct {
	Order Order
	Item  *OrderItem
}
