package views

import (
	"time"

	"github.com/custodialbank/ledger/pkg"
	"github.com/custodialbank/ledger/pkg/models"
	"github.com/shopspring/decimal"
)

type TransferRequest struct {
	To     string          `json:"to" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
	// IdempotencyKey, when set, makes retries of the same transfer replay the
	// original response instead of executing again.
	IdempotencyKey string `json:"idempotencyKey" binding:"omitempty,max=128"`
}

type TransferResponse struct {
	NewBalance decimal.Decimal `json:"newBalance"`
}

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type ProfileResponse struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// HistoryEntry is one ledger record annotated relative to the queried user.
type HistoryEntry struct {
	ID           int64           `json:"id"`
	Direction    pkg.Direction   `json:"direction"`
	Counterparty string          `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
	Timestamp    time.Time       `json:"timestamp"`
}

type HistoryResponse struct {
	Transactions []HistoryEntry `json:"transactions"`
}

// AnnotateTransaction tags txn relative to userID: direction is "sent" when the
// user is the sender, and the counterparty is the other party's display name.
func AnnotateTransaction(txn models.Transaction, userID int64, fromName, toName string) HistoryEntry {
	entry := HistoryEntry{
		ID:        txn.ID,
		Amount:    txn.Amount,
		Timestamp: txn.CreatedAt,
	}
	if txn.FromUserID == userID {
		entry.Direction = pkg.DirectionSent
		entry.Counterparty = toName
	} else {
		entry.Direction = pkg.DirectionReceived
		entry.Counterparty = fromName
	}
	return entry
}

// TransferEvent is the audit payload published after a transfer commits.
type TransferEvent struct {
	TransactionID int64           `json:"transactionId"`
	TraceID       string          `json:"traceId"`
	FromUserID    int64           `json:"fromUserId"`
	ToUserID      int64           `json:"toUserId"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"createdAt"`
}
