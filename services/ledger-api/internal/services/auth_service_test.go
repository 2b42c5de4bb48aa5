package services

import (
	"context"
	"errors"
	"testing"

	"github.com/custodialbank/ledger/pkg"
	middleware "github.com/custodialbank/ledger/pkg/middlewares"
	"github.com/custodialbank/ledger/pkg/models"
	"github.com/custodialbank/ledger/pkg/repositories"
	"github.com/custodialbank/ledger/services/ledger-api/configs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeHasher keeps auth tests fast; bcrypt itself is covered by its own package.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func authTestConfig() *configs.Config {
	return &configs.Config{
		JwtSecret:       "test-secret",
		TokenTTLMinutes: 60,
	}
}

func newAuthFixture(store *fakeStore) AuthService {
	return NewAuthService(zap.NewNop(), authTestConfig(), store,
		&fakeUserRepo{store: store}, &fakeAccountRepo{store: store}, fakeHasher{})
}

func TestRegister_CreatesUserAndAccount(t *testing.T) {
	store := newFakeStore()
	svc := newAuthFixture(store)

	resp, err := svc.Register(context.Background(), "trace-1", "alice", "password123")

	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.NotZero(t, resp.UserID)
	assert.NotEmpty(t, resp.Token)

	// A fresh account opens with the fixed starting balance and no history.
	assert.True(t, store.balances[resp.UserID].Equal(models.InitialBalance))
	assert.Empty(t, store.ledger)
}

func TestRegister_TokenCarriesIdentity(t *testing.T) {
	store := newFakeStore()
	svc := newAuthFixture(store)

	resp, err := svc.Register(context.Background(), "trace-1", "alice", "password123")
	require.NoError(t, err)

	claims := &middleware.Claims{}
	token, err := jwt.ParseWithClaims(resp.Token, claims, func(t *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, resp.UserID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	store := newFakeStore()
	svc := newAuthFixture(store)

	_, err := svc.Register(context.Background(), "trace-1", "alice", "password123")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "trace-2", "alice", "otherpassword")
	assert.Equal(t, pkg.ErrDuplicateUserCode, appErrCode(t, err))
	assert.Len(t, store.balances, 1, "no second account")
}

func TestLogin_Success(t *testing.T) {
	store := newFakeStore()
	svc := newAuthFixture(store)

	registered, err := svc.Register(context.Background(), "trace-1", "alice", "password123")
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), "trace-2", "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, resp.UserID)
	assert.NotEmpty(t, resp.Token)
}

// outageUserRepo simulates a store that is down for lookups.
type outageUserRepo struct {
	repositories.UserRepository
}

func (outageUserRepo) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return models.User{}, errors.New("connection refused")
}

func TestLogin_StoreOutageIsNotUnauthorized(t *testing.T) {
	store := newFakeStore()
	svc := NewAuthService(zap.NewNop(), authTestConfig(), store,
		outageUserRepo{}, &fakeAccountRepo{store: store}, fakeHasher{})

	_, err := svc.Login(context.Background(), "trace-1", "alice", "password123")

	code := appErrCode(t, err)
	assert.NotEqual(t, pkg.ErrUnauthorizedCode, code, "store outage must not look like bad credentials")
	assert.Equal(t, pkg.ErrSQLUnknownCode, code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	store := newFakeStore()
	svc := newAuthFixture(store)

	_, err := svc.Register(context.Background(), "trace-1", "alice", "password123")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "trace-2", "alice", "wrongpassword")
	assert.Equal(t, pkg.ErrUnauthorizedCode, appErrCode(t, err))

	// Unknown users get the same answer as bad passwords.
	_, err = svc.Login(context.Background(), "trace-3", "mallory", "password123")
	assert.Equal(t, pkg.ErrUnauthorizedCode, appErrCode(t, err))
}
