package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/custodialbank/ledger/pkg"
	"github.com/custodialbank/ledger/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const AuthCookieName = "authToken"

// Claims carries the authenticated caller identity inside the JWT.
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SignToken issues a token for the given user, valid for ttl.
func SignToken(secret []byte, userID int64, username string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Auth returns Gin middleware that resolves the caller identity from the auth
// cookie or a Bearer header and stores the user id in the request context.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if cookie, err := c.Cookie(AuthCookieName); err == nil {
			token = cookie
		}
		if utils.IsEmpty(token) {
			header := c.GetHeader("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if utils.IsEmpty(token) {
			abortUnauthorized(c, "missing credentials")
			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !parsed.Valid {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(pkg.UserId, claims.UserID)
		c.Next()
	}
}

// CallerUserID returns the authenticated user id set by Auth.
func CallerUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(pkg.UserId)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, pkg.ErrorResponse{
		Code:    pkg.ErrUnauthorizedCode.Code,
		Message: msg,
	})
}
