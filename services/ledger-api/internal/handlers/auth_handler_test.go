package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodialbank/ledger/pkg"
	middleware "github.com/custodialbank/ledger/pkg/middlewares"
	"github.com/custodialbank/ledger/pkg/views"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAuthService struct {
	registerFn func(ctx context.Context, traceID, username, password string) (views.AuthResponse, error)
	loginFn    func(ctx context.Context, traceID, username, password string) (views.AuthResponse, error)
}

func (m *mockAuthService) Register(ctx context.Context, traceID, username, password string) (views.AuthResponse, error) {
	return m.registerFn(ctx, traceID, username, password)
}

func (m *mockAuthService) Login(ctx context.Context, traceID, username, password string) (views.AuthResponse, error) {
	return m.loginFn(ctx, traceID, username, password)
}

func newAuthTestRouter(svc *mockAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAuthHandler(zap.NewNop(), svc, 3600)
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Set(pkg.TraceId, "test-trace")
		c.Next()
	})
	h.RegisterRoutes(api)
	return r
}

func TestRegister_Created(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, traceID, username, password string) (views.AuthResponse, error) {
			assert.Equal(t, "alice", username)
			return views.AuthResponse{UserID: 1, Username: username, Token: "tok"}, nil
		},
	}
	r := newAuthTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"username":"alice","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp views.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.UserID)

	cookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, middleware.AuthCookieName+"=tok")
}

func TestRegister_ShortPassword(t *testing.T) {
	r := newAuthTestRouter(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"username":"alice","password":"short"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, traceID, username, password string) (views.AuthResponse, error) {
			return views.AuthResponse{}, pkg.NewAppError(pkg.ErrDuplicateUserCode, "username already exists", nil)
		},
	}
	r := newAuthTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"username":"alice","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp pkg.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, pkg.ErrDuplicateUserCode.Code, resp.Code)
}

func TestLogin_OK(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, traceID, username, password string) (views.AuthResponse, error) {
			return views.AuthResponse{UserID: 1, Username: username, Token: "tok"}, nil
		},
	}
	r := newAuthTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"alice","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), middleware.AuthCookieName+"=tok")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, traceID, username, password string) (views.AuthResponse, error) {
			return views.AuthResponse{}, pkg.NewAppError(pkg.ErrUnauthorizedCode, "invalid credentials", nil)
		},
	}
	r := newAuthTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"alice","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	r := newAuthTestRouter(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	cookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, middleware.AuthCookieName+"=")
	assert.Contains(t, cookie, "Max-Age=0")
}
