package configs

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The database layer prepends postgres:// (pools) and pgx5:// (migrations) to
// DB addresses, so shipped config must carry scheme-less DSNs or the doubled
// scheme misparses as a hostname.
func TestDevConfigDSNsAreSchemeless(t *testing.T) {
	v := viper.New()
	v.SetConfigFile("config.dev.yaml")
	require.NoError(t, v.ReadInConfig())

	for _, key := range []string{"PRIMARY_DB_ADDR", "REPLICA_DB_ADDR"} {
		addr := v.GetString(key)
		assert.False(t, strings.Contains(addr, "://"),
			"%s must not carry a URL scheme, got %q", key, addr)
	}
}

func TestConfigDurationHelpers(t *testing.T) {
	cfg := &Config{
		TokenTTLMinutes:       60,
		TransferRetryDelayMs:  25,
		IdempotencyTTLMinutes: 1440,
	}
	assert.Equal(t, "1h0m0s", cfg.TokenTTL().String())
	assert.Equal(t, "25ms", cfg.TransferRetryDelay().String())
	assert.Equal(t, "24h0m0s", cfg.IdempotencyTTL().String())
}
