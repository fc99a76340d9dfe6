// Package inventory guards product stock against overselling.
package inventory

import (
	"context"
	"fmt"

	"kiosk-pos/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// StockStore is the storage the guard locks and decrements.
type StockStore interface {
	LockStock(ctx context.Context, tx pgx.Tx, id string) (int, error)
	DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) error
}

// Guard reserves stock for order lines inside the caller's transaction.
type Guard struct {
	store  StockStore
	logger zerolog.Logger
}

// NewGuard creates a new inventory guard.
func NewGuard(store StockStore, logger zerolog.Logger) *Guard {
	return &Guard{
		store:  store,
		logger: logger.With().Str("component", "inventory").Logger(),
	}
}

// Reserve locks the product row, checks that quantity units are available and
// decrements in_stock. The lock and the decrement live as long as tx: a
// concurrent Reserve on the same product waits until tx commits or rolls
// back, then sees the updated stock.
func (g *Guard) Reserve(ctx context.Context, tx pgx.Tx, productID string, quantity int) error {
	if quantity <= 0 {
		return model.ErrInvalidItem.WithMessage("quantity must be greater than zero")
	}

	available, err := g.store.LockStock(ctx, tx, productID)
	if err != nil {
		return err
	}

	if available < quantity {
		g.logger.Warn().
			Str("product_id", productID).
			Int("requested", quantity).
			Int("available", available).
			Msg("insufficient stock")
		return model.ErrInsufficientStock.WithMessage(
			fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", productID, quantity, available),
		)
	}

	if err := g.store.DecrementStock(ctx, tx, productID, quantity); err != nil {
		return err
	}

	g.logger.Debug().
		Str("product_id", productID).
		Int("quantity", quantity).
		Int("remaining", available-quantity).
		Msg("stock reserved")

	return nil
}
