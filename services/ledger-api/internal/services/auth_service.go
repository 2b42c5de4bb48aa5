package services

import (
	"context"
	"errors"

	"github.com/custodialbank/ledger/pkg"
	"github.com/custodialbank/ledger/pkg/database"
	middleware "github.com/custodialbank/ledger/pkg/middlewares"
	"github.com/custodialbank/ledger/pkg/repositories"
	"github.com/custodialbank/ledger/pkg/views"
	"github.com/custodialbank/ledger/services/ledger-api/configs"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PasswordHasher abstracts credential hashing so handler tests don't pay bcrypt
// cost.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AuthService is the identity collaborator: registration, login, and user lookup.
// Registration creates the user and their account in one unit of work.
type AuthService interface {
	Register(ctx context.Context, traceID, username, password string) (views.AuthResponse, error)
	Login(ctx context.Context, traceID, username, password string) (views.AuthResponse, error)
}

type AuthServiceImpl struct {
	logger      *zap.Logger
	cnf         *configs.Config
	db          database.TxRunner
	userRepo    repositories.UserRepository
	accountRepo repositories.AccountRepository
	hasher      PasswordHasher
}

func NewAuthService(logger *zap.Logger, cnf *configs.Config, db database.TxRunner,
	userRepo repositories.UserRepository, accountRepo repositories.AccountRepository,
	hasher PasswordHasher) AuthService {
	return &AuthServiceImpl{
		logger:      logger,
		cnf:         cnf,
		db:          db,
		userRepo:    userRepo,
		accountRepo: accountRepo,
		hasher:      hasher,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, traceID, username, password string) (views.AuthResponse, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return views.AuthResponse{}, pkg.NewAppError(pkg.ErrServerCode, "failed to hash password", err)
	}

	var userID int64
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		id, txErr := s.userRepo.Create(ctx, tx, username, hash)
		if txErr != nil {
			return txErr
		}
		// The account opens with the user or not at all.
		if _, txErr = s.accountRepo.Create(ctx, tx, id); txErr != nil {
			return txErr
		}
		userID = id
		return nil
	})
	if err != nil {
		var appErr pkg.AppError
		if errors.As(err, &appErr) {
			return views.AuthResponse{}, err
		}
		return views.AuthResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}

	token, err := middleware.SignToken([]byte(s.cnf.JwtSecret), userID, username, s.cnf.TokenTTL())
	if err != nil {
		return views.AuthResponse{}, pkg.NewAppError(pkg.ErrServerCode, "failed to sign token", err)
	}

	s.logger.Info("user registered",
		zap.String(pkg.TraceId, traceID),
		zap.Int64(pkg.UserId, userID),
		zap.String("username", username))
	return views.AuthResponse{UserID: userID, Username: username, Token: token}, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, traceID, username, password string) (views.AuthResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		var appErr pkg.AppError
		if errors.As(err, &appErr) && appErr.Code == pkg.ErrRecordNotFoundCode {
			// Same response for unknown user and bad password.
			return views.AuthResponse{}, pkg.NewAppError(pkg.ErrUnauthorizedCode, "invalid credentials", err)
		}
		// Store failures are not credential failures.
		return views.AuthResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if err = s.hasher.Compare(user.PasswordHash, password); err != nil {
		return views.AuthResponse{}, pkg.NewAppError(pkg.ErrUnauthorizedCode, "invalid credentials", err)
	}

	token, err := middleware.SignToken([]byte(s.cnf.JwtSecret), user.ID, user.Username, s.cnf.TokenTTL())
	if err != nil {
		return views.AuthResponse{}, pkg.NewAppError(pkg.ErrServerCode, "failed to sign token", err)
	}

	s.logger.Info("user logged in",
		zap.String(pkg.TraceId, traceID),
		zap.Int64(pkg.UserId, user.ID))
	return views.AuthResponse{UserID: user.ID, Username: user.Username, Token: token}, nil
}
