package service

import (
	"context"
	"time"

	"kiosk-pos/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) NextOrderNumber(ctx context.Context, tx pgx.Tx) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockOrderRepository) ListRows(ctx context.Context, activeOnly bool) ([]model.OrderRow, error) {
	args := m.Called(ctx, activeOnly)
	return rowsResult(args)
}

func (m *MockOrderRepository) GetRowsByID(ctx context.Context, id uuid.UUID) ([]model.OrderRow, error) {
	args := m.Called(ctx, id)
	if fn, ok := args.Get(0).(func(uuid.UUID) []model.OrderRow); ok {
		return fn(id), args.Error(1)
	}
	return rowsResult(args)
}

func (m *MockOrderRepository) GetRowsByPickupCode(ctx context.Context, code string) ([]model.OrderRow, error) {
	args := m.Called(ctx, code)
	return rowsResult(args)
}

func (m *MockOrderRepository) LockState(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.OrderState, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderState), args.Error(1)
}

func (m *MockOrderRepository) UpdateState(ctx context.Context, tx pgx.Tx, id uuid.UUID, patch model.UpdateOrderRequest) error {
	args := m.Called(ctx, tx, id, patch)
	return args.Error(0)
}

func rowsResult(args mock.Arguments) ([]model.OrderRow, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderRow), args.Error(1)
}

// MockStockStore is a mock implementation of inventory.StockStore.
type MockStockStore struct {
	mock.Mock
}

func (m *MockStockStore) LockStock(ctx context.Context, tx pgx.Tx, id string) (int, error) {
	args := m.Called(ctx, tx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockStockStore) DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) error {
	args := m.Called(ctx, tx, id, quantity)
	return args.Error(0)
}

// MockOrderCache is a mock implementation of cache.OrderCache.
type MockOrderCache struct {
	mock.Mock
}

func (m *MockOrderCache) Get(ctx context.Context, code string) (*model.Order, bool, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Bool(1), args.Error(2)
}

func (m *MockOrderCache) Set(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderCache) Invalidate(ctx context.Context, code string, staleAsOf time.Time) error {
	args := m.Called(ctx, code, staleAsOf)
	return args.Error(0)
}

// codeSequence yields the given codes in order, then repeats the last one.
func codeSequence(codes ...string) func() string {
	i := 0
	return func() string {
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code
	}
}

// rowsOf flattens an order into join rows the way the repository returns them.
func rowsOf(order *model.Order) []model.OrderRow {
	header := *order
	header.Items = nil
	if len(order.Items) == 0 {
		return []model.OrderRow{{Order: header}}
	}
	rows := make([]model.OrderRow, 0, len(order.Items))
	for i := range order.Items {
		item := order.Items[i]
		rows = append(rows, model.OrderRow{Order: header, Item: &item})
	}
	return rows
}

func testOrder(code string, status model.OrderStatus, createdAt time.Time, items ...model.OrderItem) *model.Order {
	id := uuid.New()
	cash := model.PaymentCash
	for i := range items {
		items[i].OrderID = id
		items[i].LineNo = i + 1
	}
	return &model.Order{
		ID:            id,
		PickupCode:    code,
		OrderNumber:   1,
		TotalAmount:   decimal.Zero,
		Status:        status,
		PaymentMethod: &cash,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
		Items:         items,
	}
}
