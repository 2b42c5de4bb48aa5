package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/custodialbank/ledger/pkg"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

// IsEmpty reports whether s is empty or all whitespace. Optional config values
// (replica DSNs, Redis and Kafka addresses) treat " " the same as unset.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// GetTraceID pulls the request trace id set by the TraceID middleware.
func GetTraceID(c *gin.Context) (string, error) {
	traceID := c.GetString(pkg.TraceId)
	if IsEmpty(traceID) {
		return "", errors.New("trace id missing from request context")
	}
	return traceID, nil
}

// ParseStructEnv binds each mapstructure-tagged field of cfg to the identically
// named env var, then unmarshals. Untagged fields are skipped.
func ParseStructEnv(cfg interface{}) error {
	t := reflect.ValueOf(cfg).Elem().Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		if err := viper.BindEnv(tag); err != nil {
			return err
		}
	}
	return viper.Unmarshal(cfg)
}
