package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalogue item whose stock is tracked by order
// placement.
type Product struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Category  string          `json:"category" db:"category"`
	InStock   int             `json:"in_stock" db:"in_stock"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
