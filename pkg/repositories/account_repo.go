package repositories

import (
	"context"
	"errors"

	"github.com/custodialbank/ledger/pkg"
	"github.com/custodialbank/ledger/pkg/database"
	"github.com/custodialbank/ledger/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// AccountRepository is the account store: one balance row per user, mutated only
// through ApplyDelta inside a transfer unit of work. It deliberately does not
// enforce non-negativity; that policy belongs to the transfer engine.
type AccountRepository interface {
	// Create opens an account for userID with the initial balance.
	Create(ctx context.Context, tx pgx.Tx, userID int64) (int64, error)
	// GetBalance reads the committed balance outside any unit of work.
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	// GetBalanceForUpdate reads the balance under a row lock held until tx ends.
	GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (decimal.Decimal, error)
	// ApplyDelta atomically adds delta (positive or negative) and returns the result.
	ApplyDelta(ctx context.Context, tx pgx.Tx, userID int64, delta decimal.Decimal) (decimal.Decimal, error)
}

type AccountRepositoryImpl struct {
	db *database.DB
}

func NewAccountRepository(db *database.DB) AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

func (a AccountRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, userID int64) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `INSERT INTO accounts (user_id, balance)
		VALUES ($1, $2)
		RETURNING id`,
		userID, models.InitialBalance,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, pkg.NewAppError(pkg.ErrDuplicateAccountCode, "account already exists for user", err)
		}
		return 0, err
	}
	return id, nil
}

func (a AccountRepositoryImpl) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := a.db.QueryRow(ctx, `SELECT balance FROM accounts WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, pkg.NewAppError(pkg.ErrAccountNotFoundCode, "account not found", err)
	}
	return balance, err
}

func (a AccountRepositoryImpl) GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, pkg.NewAppError(pkg.ErrAccountNotFoundCode, "account not found", err)
	}
	return balance, err
}

func (a AccountRepositoryImpl) ApplyDelta(ctx context.Context, tx pgx.Tx, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx, `UPDATE accounts SET balance = balance + $1, updated_at = now()
		WHERE user_id = $2
		RETURNING balance`,
		delta, userID,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, pkg.NewAppError(pkg.ErrAccountNotFoundCode, "account not found", err)
	}
	return balance, err
}
