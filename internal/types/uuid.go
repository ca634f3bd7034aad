package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex plan_01HZX4Q6K3V4B0YQ8S5G2T7M9N
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	UUID_PREFIX_PLAN                = "plan"
	UUID_PREFIX_SETUP_FEE           = "fee"
	UUID_PREFIX_MONTHLY_CHARGES     = "mchg"
	UUID_PREFIX_MONTHLY_CHARGE_LINE = "mchg_line"
)
