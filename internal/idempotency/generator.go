package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/shipdesk/shipdesk/internal/types"
	"github.com/shopspring/decimal"
)

// Scope namespaces keys so the same parameters never collide across operations
type Scope string

const (
	// ScopeServiceCharge keys additional service charges submitted by callers
	ScopeServiceCharge Scope = "service_charge"
	// ScopeOverSpace keys over-space recomputations of a charges record
	ScopeOverSpace Scope = "over_space"
)

// hashBytes is how much of the sha256 digest ends up in a key
const hashBytes = 16

// Generator derives the idempotency keys stored on charge lines
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// ServiceChargeKey scopes a caller supplied key to the client month it was sent for
func (g *Generator) ServiceChargeKey(clientID string, period types.BillingPeriod, callerKey string) string {
	return g.GenerateKey(ScopeServiceCharge, map[string]interface{}{
		"client_id": clientID,
		"period":    period.String(),
		"key":       callerKey,
	})
}

// OverSpaceKey identifies one recomputation of the over-space component. The record
// version is part of the key so recording the same usage again after other changes
// is a new line.
func (g *Generator) OverSpaceKey(chargesID string, version int64, planID string, usedCbm decimal.Decimal) string {
	return g.GenerateKey(ScopeOverSpace, map[string]interface{}{
		"charges_id": chargesID,
		"version":    version,
		"plan_id":    planID,
		"used_cbm":   usedCbm.String(),
	})
}

// GenerateKey hashes the scope and the parameters sorted by name into
// <scope>-<hex digest>
func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	names := lo.Keys(params)
	sort.Strings(names)

	h := sha256.New()
	h.Write([]byte(scope))
	for _, name := range names {
		fmt.Fprintf(h, "\x00%s=%v", name, params[name])
	}

	return fmt.Sprintf("%s-%s", scope, hex.EncodeToString(h.Sum(nil)[:hashBytes]))
}
