// Package merchant defines merchant settlement balances.
package merchant

import (
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Balance is the funds accrued to a merchant from successful charges and
// not yet paid out. Every successful charge credits it by exactly the
// charged amount; payouts debit it. It never goes negative.
type Balance struct {
	types.Entity
	Merchant id.AccountID `json:"merchant"`
	Accrued  int64        `json:"accrued"`
}

// Payout records a withdrawal of accrued funds to a merchant.
type Payout struct {
	ID        id.PayoutID  `json:"id"`
	Merchant  id.AccountID `json:"merchant"`
	Amount    int64        `json:"amount"`
	Timestamp uint64       `json:"timestamp"`
}
