package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/custodialbank/ledger/pkg"
	"github.com/custodialbank/ledger/pkg/database"
	"github.com/custodialbank/ledger/pkg/repositories"
	"github.com/custodialbank/ledger/pkg/views"
	"github.com/custodialbank/ledger/services/ledger-api/configs"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransferService moves funds between two accounts as one atomic unit of work:
// debit, credit, and ledger append commit together or not at all.
type TransferService interface {
	// Transfer returns the sender's balance after the transfer commits.
	Transfer(ctx context.Context, traceID string, fromUserID int64, recipientName string, amount decimal.Decimal) (decimal.Decimal, error)
}

type TransferServiceImpl struct {
	logger      *zap.Logger
	cnf         *configs.Config
	db          database.TxRunner
	userRepo    repositories.UserRepository
	accountRepo repositories.AccountRepository
	txnRepo     repositories.TransactionRepository
	publisher   AuditPublisher
}

func NewTransferService(logger *zap.Logger, cnf *configs.Config, db database.TxRunner,
	userRepo repositories.UserRepository, accountRepo repositories.AccountRepository,
	txnRepo repositories.TransactionRepository, publisher AuditPublisher) TransferService {
	return &TransferServiceImpl{
		logger:      logger,
		cnf:         cnf,
		db:          db,
		userRepo:    userRepo,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		publisher:   publisher,
	}
}

func (s *TransferServiceImpl) Transfer(ctx context.Context, traceID string, fromUserID int64, recipientName string, amount decimal.Decimal) (decimal.Decimal, error) {
	// Preconditions, first failure wins. Amount first: it needs no store access.
	if !amount.IsPositive() {
		return decimal.Zero, pkg.NewAppError(pkg.ErrInvalidAmountCode, "transfer amount must be a positive number", nil)
	}

	recipient, err := s.userRepo.FindByUsername(ctx, recipientName)
	if err != nil {
		var appErr pkg.AppError
		if errors.As(err, &appErr) && appErr.Code == pkg.ErrRecordNotFoundCode {
			return decimal.Zero, pkg.NewAppError(pkg.ErrRecipientNotFoundCode, "recipient not found", err)
		}
		return decimal.Zero, pkg.HandleSQLError(traceID, s.logger, err)
	}

	var (
		newBalance decimal.Decimal
		txnID      int64
		createdAt  time.Time
	)
	attempt := func(ctx context.Context) error {
		return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
			// Lock both balance rows in ascending user-id order so two transfers
			// moving funds in opposite directions between the same pair cannot
			// deadlock. The funds check runs under the sender's lock, which is
			// what rules out the stale-read double-spend.
			senderBalance, lockErr := s.lockAccounts(ctx, tx, fromUserID, recipient.ID)
			if lockErr != nil {
				return lockErr
			}
			if senderBalance.LessThan(amount) {
				return pkg.NewAppError(pkg.ErrInsufficientFundsCode, "insufficient funds", nil)
			}

			balance, txErr := s.accountRepo.ApplyDelta(ctx, tx, fromUserID, amount.Neg())
			if txErr != nil {
				return txErr
			}
			if recipient.ID != fromUserID {
				if _, txErr = s.accountRepo.ApplyDelta(ctx, tx, recipient.ID, amount); txErr != nil {
					return txErr
				}
			} else {
				// Self-transfer nets to zero but is still recorded.
				if balance, txErr = s.accountRepo.ApplyDelta(ctx, tx, fromUserID, amount); txErr != nil {
					return txErr
				}
			}

			id, txErr := s.txnRepo.Append(ctx, tx, fromUserID, recipient.ID, amount)
			if txErr != nil {
				return txErr
			}
			newBalance = balance
			txnID = id
			createdAt = time.Now().UTC()
			return nil
		})
	}

	operation := func() error {
		opErr := attempt(ctx)
		if opErr == nil {
			return nil
		}
		var appErr pkg.AppError
		if errors.As(opErr, &appErr) {
			// Deterministic business failure: the unit of work rolled back, state
			// is untouched, and a retry cannot change the outcome.
			return backoff.Permanent(opErr)
		}
		if pkg.IsSerializationFailure(opErr) {
			s.logger.Warn("transfer conflict, retrying",
				zap.String(pkg.TraceId, traceID),
				zap.Int64("from_user_id", fromUserID),
				zap.Error(opErr))
			return opErr
		}
		return backoff.Permanent(opErr)
	}

	// Only serialization conflicts retry, bounded, with jittered exponential backoff.
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = s.cnf.TransferRetryDelay()
	expo.MaxInterval = 10 * s.cnf.TransferRetryDelay()
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(s.cnf.TransferMaxRetries-1)), ctx)

	if err = backoff.Retry(operation, policy); err != nil {
		var appErr pkg.AppError
		if errors.As(err, &appErr) {
			return decimal.Zero, err
		}
		s.logger.Error("transfer failed",
			zap.String(pkg.TraceId, traceID),
			zap.Int64("from_user_id", fromUserID),
			zap.Error(err))
		return decimal.Zero, pkg.NewAppError(pkg.ErrTransferFailedCode, "transfer failed", err)
	}

	s.logger.Info("transfer committed",
		zap.String(pkg.TraceId, traceID),
		zap.Int64("transaction_id", txnID),
		zap.Int64("from_user_id", fromUserID),
		zap.Int64("to_user_id", recipient.ID),
		zap.String("amount", amount.String()))

	// Best effort: audit failures never affect a committed transfer.
	if pubErr := s.publisher.PublishTransfer(views.TransferEvent{
		TransactionID: txnID,
		TraceID:       traceID,
		FromUserID:    fromUserID,
		ToUserID:      recipient.ID,
		Amount:        amount,
		CreatedAt:     createdAt,
	}); pubErr != nil {
		s.logger.Error("failed to publish transfer audit event",
			zap.String(pkg.TraceId, traceID),
			zap.Int64("transaction_id", txnID),
			zap.Error(pubErr))
	}

	return newBalance, nil
}

// lockAccounts takes FOR UPDATE locks on both parties' rows in ascending user-id
// order and returns the sender's locked balance. A self-transfer locks once.
func (s *TransferServiceImpl) lockAccounts(ctx context.Context, tx pgx.Tx, fromUserID, toUserID int64) (decimal.Decimal, error) {
	if fromUserID == toUserID {
		return s.accountRepo.GetBalanceForUpdate(ctx, tx, fromUserID)
	}

	first, second := fromUserID, toUserID
	if second < first {
		first, second = second, first
	}

	firstBalance, err := s.accountRepo.GetBalanceForUpdate(ctx, tx, first)
	if err != nil {
		return decimal.Zero, err
	}
	secondBalance, err := s.accountRepo.GetBalanceForUpdate(ctx, tx, second)
	if err != nil {
		return decimal.Zero, err
	}

	if first == fromUserID {
		return firstBalance, nil
	}
	return secondBalance, nil
}
