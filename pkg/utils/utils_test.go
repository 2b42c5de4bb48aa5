package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/custodialbank/ledger/pkg"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.True(t, IsEmpty("\t\n"))
	assert.False(t, IsEmpty("localhost:6379"))
}

func TestGetTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetTraceID(c)
	assert.Error(t, err, "missing trace id is an error, not an empty string")

	c.Set(pkg.TraceId, "trace-123")
	traceID, err := GetTraceID(c)
	require.NoError(t, err)
	assert.Equal(t, "trace-123", traceID)
}
