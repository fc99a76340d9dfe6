package repository

import (
	"context"
	"errors"
	"fmt"

	"kiosk-pos/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// LockStock reads in_stock with SELECT ... FOR UPDATE.
func (r *productRepository) LockStock(ctx context.Context, tx pgx.Tx, id string) (int, error) {
	query := `
		SELECT in_stock
		FROM products
		WHERE id = $1
		FOR UPDATE
	`

	var inStock int
	err := tx.QueryRow(ctx, query, id).Scan(&inStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrProductNotFound.WithMessage(fmt.Sprintf("product %s not found", id))
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to lock product stock")
		return 0, fmt.Errorf("failed to lock product stock: %w", err)
	}

	return inStock, nil
}

// DecrementStock subtracts quantity from in_stock. The in_stock CHECK
// constraint surfaces as model.ErrInsufficientStock.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) error {
	query := `
		UPDATE products
		SET in_stock = in_stock - $2
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, quantity)
	if err != nil {
		if isCheckViolation(err, constraintStock) {
			return model.ErrInsufficientStock.WithMessage(fmt.Sprintf("insufficient stock for product %s", id))
		}
		r.logger.Error().
			Err(err).
			Str("product_id", id).
			Int("quantity", quantity).
			Msg("failed to decrement stock")
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound.WithMessage(fmt.Sprintf("product %s not found", id))
	}

	return nil
}
