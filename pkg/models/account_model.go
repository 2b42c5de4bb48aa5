package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InitialBalance is credited to every account at registration.
var InitialBalance = decimal.NewFromInt(100)

// Account maps to table `accounts`. One per user; balance is fixed-point NUMERIC.
// Only the transfer engine mutates Balance.
type Account struct {
	ID        int64
	UserID    int64
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
