package handlers

import (
	"net/http"

	"github.com/custodialbank/ledger/pkg"
	middleware "github.com/custodialbank/ledger/pkg/middlewares"
	"github.com/custodialbank/ledger/pkg/utils"
	"github.com/custodialbank/ledger/pkg/views"
	"github.com/custodialbank/ledger/services/ledger-api/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	logger   *zap.Logger
	service  services.AuthService
	tokenTTL int // seconds, for the auth cookie
}

func NewAuthHandler(logger *zap.Logger, svc services.AuthService, tokenTTLSeconds int) *AuthHandler {
	return &AuthHandler{logger: logger, service: svc, tokenTTL: tokenTTLSeconds}
}

// RegisterRoutes registers auth routes on the provided Gin group.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
}

func (h *AuthHandler) Register(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
			Code:    pkg.ErrServerCode.Code,
			Message: err.Error(),
		})
		return
	}

	var req views.RegisterRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.service.Register(c.Request.Context(), traceID, req.Username, req.Password)
	if err != nil {
		errResp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(errResp.Status, errResp)
		return
	}

	h.setAuthCookie(c, resp.Token)
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
			Code:    pkg.ErrServerCode.Code,
			Message: err.Error(),
		})
		return
	}

	var req views.LoginRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), traceID, req.Username, req.Password)
	if err != nil {
		errResp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(errResp.Status, errResp)
		return
	}

	h.setAuthCookie(c, resp.Token)
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.AuthCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) setAuthCookie(c *gin.Context, token string) {
	c.SetCookie(middleware.AuthCookieName, token, h.tokenTTL, "/", "", false, true)
}
