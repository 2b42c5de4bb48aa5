package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction maps to table `transactions`. Rows are append-only and immutable.
type Transaction struct {
	ID         int64
	FromUserID int64
	ToUserID   int64
	Amount     decimal.Decimal
	CreatedAt  time.Time
}
