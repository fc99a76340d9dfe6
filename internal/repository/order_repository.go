package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kiosk-pos/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderNumberLockKey identifies the advisory lock guarding order_number
// allocation.
const orderNumberLockKey int64 = 0x6b696f736b01

const selectOrderRows = `
	SELECT o.id, o.customer_id, o.pickup_code, o.order_number, o.total_amount,
	       o.status, o.payment_method, o.payment_status, o.created_at, o.updated_at,
	       i.id, i.line_no, i.product_id, i.name, i.quantity, i.price, i.total_price, i.created_at
	FROM orders o
	LEFT JOIN order_items i ON i.order_id = o.id
`

const orderRowsOrdering = `
	ORDER BY o.created_at DESC, o.order_number DESC, i.line_no
`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// NextOrderNumber takes a transaction-scoped advisory lock, then reads the
// current maximum. A concurrent creator blocks on the lock until this
// transaction ends, so it always observes the committed number.
func (r *orderRepository) NextOrderNumber(ctx context.Context, tx pgx.Tx) (int64, error) {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", orderNumberLockKey); err != nil {
		r.logger.Error().Err(err).Msg("failed to acquire order number lock")
		return 0, fmt.Errorf("failed to acquire order number lock: %w", err)
	}

	var next int64
	err := tx.QueryRow(ctx, "SELECT COALESCE(MAX(order_number), 0) + 1 FROM orders").Scan(&next)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to compute next order number")
		return 0, fmt.Errorf("failed to compute next order number: %w", err)
	}

	return next, nil
}

// CreateOrder inserts the order header inside a savepoint so that a
// pickup-code collision rolls back only the insert.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, customer_id, pickup_code, order_number, total_amount,
			status, payment_method, payment_status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	savepoint, err := tx.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to create savepoint")
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	_, err = savepoint.Exec(ctx, query,
		order.ID,
		order.CustomerID,
		order.PickupCode,
		order.OrderNumber,
		order.TotalAmount,
		string(order.Status),
		nullablePaymentMethod(order.PaymentMethod),
		string(order.PaymentStatus),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if rbErr := savepoint.Rollback(ctx); rbErr != nil {
			r.logger.Error().Err(rbErr).Msg("failed to roll back savepoint")
		}
		if isUniqueViolation(err, constraintPickupCode) {
			r.logger.Debug().
				Str("pickup_code", order.PickupCode).
				Msg("pickup code already in use")
			return model.ErrPickupCodeTaken.WithCause(err)
		}
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int64("order_number", order.OrderNumber).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err := savepoint.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Msg("failed to release savepoint")
		return fmt.Errorf("failed to release savepoint: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("pickup_code", order.PickupCode).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, line_no, product_id, name, quantity, price, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.ID,
			item.OrderID,
			item.LineNo,
			item.ProductID,
			item.Name,
			item.Quantity,
			item.Price,
			item.TotalPrice,
			item.CreatedAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Int("line_no", items[i].LineNo).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// ListRows returns the join rows of every order, newest first.
func (r *orderRepository) ListRows(ctx context.Context, activeOnly bool) ([]model.OrderRow, error) {
	query := selectOrderRows
	if activeOnly {
		query += ` WHERE o.status NOT IN ('completed', 'cancelled')`
	}
	query += orderRowsOrdering

	return r.queryRows(ctx, query)
}

// GetRowsByID returns the join rows of a single order.
func (r *orderRepository) GetRowsByID(ctx context.Context, id uuid.UUID) ([]model.OrderRow, error) {
	return r.queryRows(ctx, selectOrderRows+` WHERE o.id = $1`+orderRowsOrdering, id)
}

// GetRowsByPickupCode returns the join rows of the order holding code.
func (r *orderRepository) GetRowsByPickupCode(ctx context.Context, code string) ([]model.OrderRow, error) {
	return r.queryRows(ctx, selectOrderRows+` WHERE o.pickup_code = $1`+orderRowsOrdering, code)
}

// LockState reads the mutable header fields with SELECT ... FOR UPDATE.
func (r *orderRepository) LockState(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.OrderState, error) {
	query := `
		SELECT id, pickup_code, status, payment_method, payment_status, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`

	var (
		state         model.OrderState
		status        string
		paymentMethod *string
		paymentStatus string
	)
	err := tx.QueryRow(ctx, query, id).Scan(&state.ID, &state.PickupCode, &status, &paymentMethod, &paymentStatus, &state.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	state.Status = model.OrderStatus(status)
	state.PaymentMethod = toPaymentMethod(paymentMethod)
	state.PaymentStatus = model.PaymentStatus(paymentStatus)

	return &state, nil
}

// UpdateState writes only the fields present in patch. updated_at always
// moves forward, even when the clock does not, so it can version cached
// copies of the order.
func (r *orderRepository) UpdateState(ctx context.Context, tx pgx.Tx, id uuid.UUID, patch model.UpdateOrderRequest) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.PaymentMethod != nil {
		add("payment_method", string(*patch.PaymentMethod))
	}
	if patch.PaymentStatus != nil {
		add("payment_status", string(*patch.PaymentStatus))
	}
	if len(sets) == 0 {
		return model.ErrNoFieldsToUpdate
	}
	sets = append(sets, "updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

func (r *orderRepository) queryRows(ctx context.Context, query string, args ...any) ([]model.OrderRow, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []model.OrderRow
	for rows.Next() {
		row, err := scanOrderRow(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	return result, nil
}

// scanOrderRow scans one join row. Item columns are all NULL when the order
// has no items.
func scanOrderRow(rows pgx.Rows) (model.OrderRow, error) {
	var (
		o             model.Order
		status        string
		paymentMethod *string
		paymentStatus string

		itemID        *uuid.UUID
		itemLineNo    *int
		itemProductID *string
		itemName      *string
		itemQuantity  *int
		itemPrice     decimal.NullDecimal
		itemTotal     decimal.NullDecimal
		itemCreatedAt *time.Time
	)

	err := rows.Scan(
		&o.ID, &o.CustomerID, &o.PickupCode, &o.OrderNumber, &o.TotalAmount,
		&status, &paymentMethod, &paymentStatus, &o.CreatedAt, &o.UpdatedAt,
		&itemID, &itemLineNo, &itemProductID, &itemName, &itemQuantity, &itemPrice, &itemTotal, &itemCreatedAt,
	)
	if err != nil {
		return model.OrderRow{}, err
	}

	o.Status = model.OrderStatus(status)
	o.PaymentMethod = toPaymentMethod(paymentMethod)
	o.PaymentStatus = model.PaymentStatus(paymentStatus)

	row := model.OrderRow{Order: o}
	if itemID != nil {
		item := model.OrderItem{
			ID:         *itemID,
			OrderID:    o.ID,
			ProductID:  itemProductID,
			Price:      itemPrice.Decimal,
			TotalPrice: itemTotal.Decimal,
		}
		if itemLineNo != nil {
			item.LineNo = *itemLineNo
		}
		if itemName != nil {
			item.Name = *itemName
		}
		if itemQuantity != nil {
			item.Quantity = *itemQuantity
		}
		if itemCreatedAt != nil {
			item.CreatedAt = *itemCreatedAt
		}
		row.Item = &item
	}

	return row, nil
}

func nullablePaymentMethod(m *model.PaymentMethod) *string {
	if m == nil {
		return nil
	}
	s := string(*m)
	return &s
}

func toPaymentMethod(s *string) *model.PaymentMethod {
	if s == nil {
		return nil
	}
	m := model.PaymentMethod(*s)
	return &m
}
