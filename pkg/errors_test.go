package pkg

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestToErrorResponse_AppError(t *testing.T) {
	err := NewAppError(ErrInsufficientFundsCode, "insufficient funds", nil)

	resp := ToErrorResponse(zap.NewNop(), "trace-1", err)

	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "LEDGER_INSUFFICIENT_FUNDS", resp.Code)
	assert.Equal(t, "insufficient funds", resp.Message)
}

func TestToErrorResponse_UnknownError(t *testing.T) {
	resp := ToErrorResponse(zap.NewNop(), "trace-1", errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, ErrServerCode.Code, resp.Code)
}

func TestIsSerializationFailure(t *testing.T) {
	assert.True(t, IsSerializationFailure(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsSerializationFailure(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, IsSerializationFailure(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsSerializationFailure(errors.New("plain")))
	assert.False(t, IsSerializationFailure(nil))
}

func TestHandleSQLError(t *testing.T) {
	var appErr AppError

	err := HandleSQLError("trace-1", zap.NewNop(), pgx.ErrNoRows)
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrRecordNotFoundCode, appErr.Code)

	err = HandleSQLError("trace-1", zap.NewNop(), &pgconn.PgError{Code: "23505"})
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrSQLDuplicateCode, appErr.Code)

	err = HandleSQLError("trace-1", zap.NewNop(), errors.New("dial error"))
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrSQLUnknownCode, appErr.Code)
}
