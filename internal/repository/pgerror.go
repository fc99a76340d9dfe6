package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories react to.
const (
	sqlStateUniqueViolation = "23505"
	sqlStateCheckViolation  = "23514"
)

// Constraint names declared by the migrations.
const (
	constraintPickupCode  = "orders_pickup_code_key"
	constraintOrderNumber = "orders_order_number_key"
	constraintStock       = "products_in_stock_check"
)

func pgErrorCode(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	return "", "", false
}

// isUniqueViolation reports whether err is a unique violation on constraint.
func isUniqueViolation(err error, constraint string) bool {
	code, name, ok := pgErrorCode(err)
	return ok && code == sqlStateUniqueViolation && name == constraint
}

// isCheckViolation reports whether err is a check violation on constraint.
func isCheckViolation(err error, constraint string) bool {
	code, name, ok := pgErrorCode(err)
	return ok && code == sqlStateCheckViolation && name == constraint
}
