// Package config defines the vault's stored configuration record.
package config

import (
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Config is the vault-wide configuration, written once by Init and
// mutated only through admin-gated setters.
type Config struct {
	types.Entity

	// Token is the settlement token's account reference. Immutable.
	Token id.AccountID `json:"token"`

	// TokenDecimals is the decimal places of the settlement token
	// (6 for USDC). Immutable.
	TokenDecimals uint32 `json:"token_decimals"`

	// Admin is the administrator identity permitted to run batch charges,
	// rotate itself, and recover stranded funds.
	Admin id.AccountID `json:"admin"`

	// MinTopUp is the smallest deposit accepted, in the settlement
	// token's smallest unit.
	MinTopUp int64 `json:"min_topup"`

	// GracePeriodSeconds is the window after a missed charge during which
	// a subscription is held in grace rather than demoted to
	// insufficient balance. Zero disables the grace window.
	GracePeriodSeconds uint64 `json:"grace_period_seconds"`
}

// MinTopUpAmount returns the minimum top-up as a displayable TokenAmount.
func (c *Config) MinTopUpAmount() types.TokenAmount {
	return types.Token(c.MinTopUp, c.TokenDecimals)
}
