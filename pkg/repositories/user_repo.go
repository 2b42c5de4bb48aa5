package repositories

import (
	"context"
	"errors"

	"github.com/custodialbank/ledger/pkg"
	"github.com/custodialbank/ledger/pkg/database"
	"github.com/custodialbank/ledger/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// UserRepository owns identity rows. Creation happens inside the registration
// unit of work; lookups go to the read pools.
type UserRepository interface {
	// Create inserts a new user and returns its id.
	Create(ctx context.Context, tx pgx.Tx, username, passwordHash string) (int64, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
}

type UserRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (u UserRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, username, passwordHash string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id`,
		username, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, pkg.NewAppError(pkg.ErrDuplicateUserCode, "username already exists", err)
		}
		return 0, err
	}
	return id, nil
}

func (u UserRepositoryImpl) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := u.db.QueryRow(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode, "user not found", err)
	}
	return user, err
}

func (u UserRepositoryImpl) FindByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := u.db.QueryRow(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id = $1`, id).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode, "user not found", err)
	}
	return user, err
}
