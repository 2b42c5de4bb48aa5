package services

import (
	"context"

	"github.com/custodialbank/ledger/pkg/repositories"
	"github.com/custodialbank/ledger/pkg/views"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// QueryService is the read-only path: profile, balance lookup, and history
// retrieval.
type QueryService interface {
	GetProfile(ctx context.Context, userID int64) (views.ProfileResponse, error)
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	GetHistory(ctx context.Context, userID int64) ([]views.HistoryEntry, error)
}

type QueryServiceImpl struct {
	logger      *zap.Logger
	userRepo    repositories.UserRepository
	accountRepo repositories.AccountRepository
	txnRepo     repositories.TransactionRepository
}

func NewQueryService(logger *zap.Logger, userRepo repositories.UserRepository, accountRepo repositories.AccountRepository, txnRepo repositories.TransactionRepository) QueryService {
	return &QueryServiceImpl{
		logger:      logger,
		userRepo:    userRepo,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
	}
}

func (s *QueryServiceImpl) GetProfile(ctx context.Context, userID int64) (views.ProfileResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return views.ProfileResponse{}, err
	}
	return views.ProfileResponse{UserID: user.ID, Username: user.Username}, nil
}

func (s *QueryServiceImpl) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.accountRepo.GetBalance(ctx, userID)
}

func (s *QueryServiceImpl) GetHistory(ctx context.Context, userID int64) ([]views.HistoryEntry, error) {
	return s.txnRepo.HistoryByUser(ctx, userID)
}
