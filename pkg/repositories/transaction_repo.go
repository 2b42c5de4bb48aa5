package repositories

import (
	"context"

	"github.com/custodialbank/ledger/pkg"
	"github.com/custodialbank/ledger/pkg/database"
	"github.com/custodialbank/ledger/pkg/models"
	"github.com/custodialbank/ledger/pkg/views"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TransactionRepository is the ledger: append-only transaction records with
// server-assigned ids and timestamps. Nothing else writes this table.
type TransactionRepository interface {
	// Append records one transfer inside the caller's unit of work.
	Append(ctx context.Context, tx pgx.Tx, fromUserID, toUserID int64, amount decimal.Decimal) (int64, error)
	// HistoryByUser returns every record where the user is sender or recipient,
	// most recent first, annotated with direction and counterparty name.
	HistoryByUser(ctx context.Context, userID int64) ([]views.HistoryEntry, error)
}

type TransactionRepositoryImpl struct {
	db *database.DB
}

func NewTransactionRepository(db *database.DB) TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

func (t TransactionRepositoryImpl) Append(ctx context.Context, tx pgx.Tx, fromUserID, toUserID int64, amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, pkg.NewAppError(pkg.ErrInvalidAmountCode, "ledger amount must be positive", nil)
	}
	var id int64
	err := tx.QueryRow(ctx, `INSERT INTO transactions (from_user_id, to_user_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id`,
		fromUserID, toUserID, amount,
	).Scan(&id)
	return id, err
}

func (t TransactionRepositoryImpl) HistoryByUser(ctx context.Context, userID int64) ([]views.HistoryEntry, error) {
	rows, err := t.db.Query(ctx, `SELECT
			t.id, t.from_user_id, t.to_user_id, t.amount, t.created_at,
			uf.username AS from_username,
			ut.username AS to_username
		FROM transactions t
		JOIN users uf ON t.from_user_id = uf.id
		JOIN users ut ON t.to_user_id = ut.id
		WHERE t.from_user_id = $1 OR t.to_user_id = $1
		ORDER BY t.created_at DESC, t.id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]views.HistoryEntry, 0)
	for rows.Next() {
		var txn models.Transaction
		var fromName, toName string
		if err = rows.Scan(&txn.ID, &txn.FromUserID, &txn.ToUserID, &txn.Amount, &txn.CreatedAt, &fromName, &toName); err != nil {
			return nil, err
		}
		entries = append(entries, views.AnnotateTransaction(txn, userID, fromName, toName))
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
