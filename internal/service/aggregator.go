package service

import (
	"context"
	"fmt"

	"kiosk-pos/internal/model"
	"kiosk-pos/internal/pickup"

	"github.com/google/uuid"
)

// GetOrders returns every order with its items, newest first.
func (s *orderService) GetOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := s.orderRepo.ListRows(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return groupOrders(rows), nil
}

// GetActiveOrders returns the orders still in the kitchen queue.
func (s *orderService) GetActiveOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := s.orderRepo.ListRows(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list active orders: %w", err)
	}
	return groupOrders(rows), nil
}

// GetOrder returns a single order with its items.
func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	rows, err := s.orderRepo.GetRowsByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return singleOrder(rows)
}

// GetByPickupCode rejects malformed codes before touching storage, then
// consults the cache and falls back to Postgres.
func (s *orderService) GetByPickupCode(ctx context.Context, code string) (*model.Order, error) {
	if !pickup.Valid(code) {
		return nil, model.ErrInvalidCode
	}

	cached, ok, err := s.cache.Get(ctx, code)
	if err != nil {
		s.logger.Warn().Err(err).Str("pickup_code", code).Msg("order cache lookup failed")
	}
	if ok {
		return cached, nil
	}

	rows, err := s.orderRepo.GetRowsByPickupCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to search order: %w", err)
	}

	order, err := singleOrder(rows)
	if err != nil {
		s.logger.Debug().Str("pickup_code", code).Msg("order not found")
		return nil, err
	}

	s.cacheOrder(ctx, order)
	return order, nil
}

func singleOrder(rows []model.OrderRow) (*model.Order, error) {
	orders := groupOrders(rows)
	if len(orders) == 0 {
		return nil, model.ErrOrderNotFound
	}
	return &orders[0], nil
}

// groupOrders folds join rows into orders. Orders keep the order in which
// they first appear, items keep row order, and an order without items gets
// an empty, non-nil slice.
func groupOrders(rows []model.OrderRow) []model.Order {
	orders := make([]model.Order, 0)
	index := make(map[uuid.UUID]int)

	for _, row := range rows {
		i, seen := index[row.Order.ID]
		if !seen {
			o := row.Order
			o.Items = []model.OrderItem{}
			orders = append(orders, o)
			i = len(orders) - 1
			index[o.ID] = i
		}
		if row.Item != nil {
			orders[i].Items = append(orders[i].Items, *row.Item)
		}
	}

	return orders
}
