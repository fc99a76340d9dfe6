package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kiosk-pos/internal/cache"
	"kiosk-pos/internal/inventory"
	"kiosk-pos/internal/metrics"
	"kiosk-pos/internal/model"
	"kiosk-pos/internal/pickup"
	"kiosk-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	guard     *inventory.Guard
	cfg       OrderServiceConfig
	codes     pickup.Generator
	cache     cache.OrderCache
	metrics   *metrics.OrderMetrics
	now       func() time.Time
	logger    zerolog.Logger
}

// Option customises an order service.
type Option func(*orderService)

// WithCodeGenerator replaces the random pickup-code generator.
func WithCodeGenerator(g pickup.Generator) Option {
	return func(s *orderService) { s.codes = g }
}

// WithCache enables the pickup-code lookup cache.
func WithCache(c cache.OrderCache) Option {
	return func(s *orderService) { s.cache = c }
}

// WithMetrics records order metrics.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *orderService) { s.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *orderService) { s.now = now }
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	guard *inventory.Guard,
	cfg OrderServiceConfig,
	logger zerolog.Logger,
	opts ...Option,
) OrderService {
	if cfg.MaxCodeAttempts < 1 {
		cfg.MaxCodeAttempts = DefaultOrderServiceConfig().MaxCodeAttempts
	}

	s := &orderService{
		orderRepo: orderRepo,
		guard:     guard,
		cfg:       cfg,
		codes:     pickup.NewRandomGenerator(),
		cache:     cache.Noop{},
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With().Str("service", "order").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder validates the request, then inside one transaction allocates
// the order number, inserts the header under a fresh pickup code, reserves
// stock for every line that references a product and inserts the lines.
func (s *orderService) CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error) {
	start := time.Now()

	if err := s.validateCreateRequest(req); err != nil {
		s.metrics.CreateFailed(metrics.ReasonValidation)
		return nil, err
	}

	order, err := s.createInTx(ctx, req)
	if err != nil {
		s.metrics.CreateFailed(failureReason(err))
		return nil, err
	}

	s.metrics.OrderCreated(time.Since(start))
	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("pickup_code", order.PickupCode).
		Int64("order_number", order.OrderNumber).
		Str("total_amount", order.TotalAmount.StringFixed(2)).
		Int("item_count", len(order.Items)).
		Msg("order created successfully")

	// Re-read the committed order so the response reflects storage.
	stored, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to re-read created order")
		stored = order
	}

	s.cacheOrder(ctx, stored)
	return stored, nil
}

func (s *orderService) createInTx(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	orderNumber, err := s.orderRepo.NextOrderNumber(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order := s.buildOrder(req, orderNumber)

	if err := s.insertWithUniqueCode(ctx, tx, order); err != nil {
		return nil, err
	}

	// Stock is reserved before the lines are written so an unknown product
	// surfaces as ProductNotFound rather than a foreign key failure.
	for i, item := range order.Items {
		if item.ProductID == nil {
			continue
		}
		if err := s.guard.Reserve(ctx, tx, *item.ProductID, item.Quantity); err != nil {
			s.logger.Warn().
				Err(err).
				Int("line_no", i+1).
				Str("product_id", *item.ProductID).
				Msg("stock reservation failed")
			return nil, err
		}
	}

	if err := s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	committed = true

	return order, nil
}

// insertWithUniqueCode inserts the header, drawing a new pickup code after
// each collision. The order number and transaction are kept across attempts.
func (s *orderService) insertWithUniqueCode(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	for attempt := 1; attempt <= s.cfg.MaxCodeAttempts; attempt++ {
		order.PickupCode = s.codes.Generate()

		err := s.orderRepo.CreateOrder(ctx, tx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, model.ErrPickupCodeTaken) {
			return err
		}

		s.metrics.PickupCodeCollision()
		s.logger.Debug().
			Str("pickup_code", order.PickupCode).
			Int("attempt", attempt).
			Msg("pickup code collision, retrying")
	}

	s.logger.Error().
		Int("attempts", s.cfg.MaxCodeAttempts).
		Int64("order_number", order.OrderNumber).
		Msg("pickup code space exhausted")

	return model.ErrCodeGenerationExhausted.WithMessage(
		fmt.Sprintf("failed to generate a unique pickup code after %d attempts", s.cfg.MaxCodeAttempts),
	)
}

func (s *orderService) buildOrder(req *model.CreateOrderRequest, orderNumber int64) *model.Order {
	now := s.now()

	method := model.PaymentCash
	if req.PaymentMethod != nil {
		method = *req.PaymentMethod
	}

	order := &model.Order{
		ID:            uuid.New(),
		CustomerID:    req.CustomerID,
		OrderNumber:   orderNumber,
		Status:        model.StatusPending,
		PaymentMethod: &method,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         make([]model.OrderItem, len(req.Items)),
	}

	total := decimal.Zero
	for i, item := range req.Items {
		price := item.Price.Round(2)
		lineTotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(lineTotal)

		order.Items[i] = model.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			LineNo:     i + 1,
			ProductID:  normaliseProductID(item.ProductID),
			Name:       strings.TrimSpace(item.Name),
			Quantity:   item.Quantity,
			Price:      price,
			TotalPrice: lineTotal,
			CreatedAt:  now,
		}
	}
	order.TotalAmount = total

	return order
}

// validateCreateRequest validates the order request.
func (s *orderService) validateCreateRequest(req *model.CreateOrderRequest) error {
	if req == nil || len(req.Items) == 0 {
		return model.ErrNoItems
	}

	if req.PaymentMethod != nil && !req.PaymentMethod.Valid() {
		return model.ErrInvalidPaymentMethod.WithMessage(fmt.Sprintf("unknown payment method %q", *req.PaymentMethod))
	}

	total := decimal.Zero
	for i, item := range req.Items {
		price := item.Price.Round(2)
		lineTotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))

		var problem string
		switch {
		case strings.TrimSpace(item.Name) == "":
			problem = "name is required"
		case item.Quantity <= 0:
			problem = "quantity must be greater than zero"
		case item.Quantity > model.MaxItemQuantity:
			problem = fmt.Sprintf("quantity must not exceed %d", model.MaxItemQuantity)
		case item.Price.IsNegative():
			problem = "price must not be negative"
		case price.GreaterThan(model.MaxItemPrice):
			problem = "price must not exceed " + model.MaxItemPrice.StringFixed(2)
		case lineTotal.GreaterThan(model.MaxOrderAmount):
			problem = "line total must not exceed " + model.MaxOrderAmount.StringFixed(2)
		}
		if problem != "" {
			s.logger.Warn().
				Int("item_index", i).
				Str("name", item.Name).
				Int("quantity", item.Quantity).
				Str("price", item.Price.String()).
				Msg("invalid order item")
			return model.ErrInvalidItem.WithMessage(fmt.Sprintf("item %d: %s", i+1, problem))
		}
		total = total.Add(lineTotal)
	}

	if total.GreaterThan(model.MaxOrderAmount) {
		return model.ErrInvalidItem.WithMessage("order total must not exceed " + model.MaxOrderAmount.StringFixed(2))
	}

	return nil
}

func (s *orderService) cacheOrder(ctx context.Context, order *model.Order) {
	if err := s.cache.Set(ctx, order); err != nil {
		s.logger.Warn().Err(err).Str("pickup_code", order.PickupCode).Msg("failed to cache order")
	}
}

func normaliseProductID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func failureReason(err error) string {
	if errors.Is(err, model.ErrCodeGenerationExhausted) {
		return metrics.ReasonCodeExhausted
	}
	switch model.KindOf(err) {
	case model.KindValidation:
		return metrics.ReasonValidation
	case model.KindNotFound:
		return metrics.ReasonNotFound
	case model.KindInsufficientStock:
		return metrics.ReasonInsufficientStock
	default:
		return metrics.ReasonStorage
	}
}
