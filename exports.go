package vault

import (
	"github.com/xraph/vault/merchant"
	"github.com/xraph/vault/types"
)

// Re-export common types for convenience so users don't have to import
// the sub-packages.

// TokenAmount is re-exported from types package.
type TokenAmount = types.TokenAmount

// Entity is re-exported from types package.
type Entity = types.Entity

// Payout is re-exported from merchant package.
type Payout = merchant.Payout

// Re-export TokenAmount constructors
var (
	Token     = types.Token
	ZeroToken = types.ZeroToken
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
