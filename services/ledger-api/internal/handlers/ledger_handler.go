package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/custodialbank/ledger/pkg"
	"github.com/custodialbank/ledger/pkg/cache"
	middleware "github.com/custodialbank/ledger/pkg/middlewares"
	"github.com/custodialbank/ledger/pkg/utils"
	"github.com/custodialbank/ledger/pkg/views"
	"github.com/custodialbank/ledger/services/ledger-api/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LedgerHandler struct {
	logger   *zap.Logger
	transfer services.TransferService
	query    services.QueryService
	limiter  *pkg.DistributedLimiter
	idem     cache.IdempotencyStore
}

func NewLedgerHandler(logger *zap.Logger, transfer services.TransferService, query services.QueryService, limiter *pkg.DistributedLimiter, idem cache.IdempotencyStore) *LedgerHandler {
	return &LedgerHandler{logger: logger, transfer: transfer, query: query, limiter: limiter, idem: idem}
}

// RegisterRoutes registers ledger routes on an authenticated Gin group.
func (h *LedgerHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.GetProfile)
	r.GET("/balance", h.GetBalance)
	r.POST("/transfer", h.Transfer)
	r.GET("/history", h.GetHistory)
}

func (h *LedgerHandler) GetProfile(c *gin.Context) {
	traceID, userID, ok := h.callerContext(c)
	if !ok {
		return
	}

	profile, err := h.query.GetProfile(c.Request.Context(), userID)
	if err != nil {
		errResp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(errResp.Status, errResp)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *LedgerHandler) GetBalance(c *gin.Context) {
	traceID, userID, ok := h.callerContext(c)
	if !ok {
		return
	}

	balance, err := h.query.GetBalance(c.Request.Context(), userID)
	if err != nil {
		errResp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(errResp.Status, errResp)
		return
	}

	c.JSON(http.StatusOK, views.BalanceResponse{Balance: balance})
}

func (h *LedgerHandler) Transfer(c *gin.Context) {
	traceID, userID, ok := h.callerContext(c)
	if !ok {
		return
	}

	if !h.limiter.Allow(c.Request.Context()) {
		middleware.ObserveTransfer("rate_limited")
		c.JSON(http.StatusTooManyRequests, pkg.ErrorResponse{
			Code:    pkg.ErrRateLimitedCode.Code,
			Message: pkg.ErrRateLimitedCode.Message,
		})
		return
	}

	var req views.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Code:    pkg.ErrInvalidAmountCode.Code,
			Message: "invalid transfer details",
			Details: err.Error(),
		})
		return
	}

	idemKey := ""
	if req.IdempotencyKey != "" {
		idemKey = fmt.Sprintf("idem:transfer:%d:%s", userID, req.IdempotencyKey)
		if payload, ok := h.idem.Get(c.Request.Context(), idemKey); ok {
			middleware.ObserveTransfer("replayed")
			c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
			return
		}
	}

	newBalance, err := h.transfer.Transfer(c.Request.Context(), traceID, userID, req.To, req.Amount)
	if err != nil {
		errResp := pkg.ToErrorResponse(h.logger, traceID, err)
		middleware.ObserveTransfer(errResp.Code)
		c.JSON(errResp.Status, errResp)
		return
	}

	resp := views.TransferResponse{NewBalance: newBalance}
	if idemKey != "" {
		if payload, err := json.Marshal(resp); err == nil {
			h.idem.Put(c.Request.Context(), idemKey, payload)
		}
	}

	middleware.ObserveTransfer("committed")
	c.JSON(http.StatusOK, resp)
}

func (h *LedgerHandler) GetHistory(c *gin.Context) {
	traceID, userID, ok := h.callerContext(c)
	if !ok {
		return
	}

	entries, err := h.query.GetHistory(c.Request.Context(), userID)
	if err != nil {
		errResp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(errResp.Status, errResp)
		return
	}

	c.JSON(http.StatusOK, views.HistoryResponse{Transactions: entries})
}

func (h *LedgerHandler) callerContext(c *gin.Context) (string, int64, bool) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
			Code:    pkg.ErrServerCode.Code,
			Message: err.Error(),
		})
		return "", 0, false
	}
	userID, ok := middleware.CallerUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, pkg.ErrorResponse{
			Code:    pkg.ErrUnauthorizedCode.Code,
			Message: pkg.ErrUnauthorizedCode.Message,
		})
		return "", 0, false
	}
	return traceID, userID, true
}
