package merchant

import (
	"context"

	"github.com/xraph/vault/id"
)

// Store is the persistence interface for merchant settlement balances.
//
// Credit adds to a merchant's accrued balance, creating the record on
// first use. Debit subtracts and must fail (without mutation) when the
// accrued balance is short, so a payout can never overdraw. Balance
// returns zero for merchants that have never been credited.
type Store interface {
	Credit(ctx context.Context, merchant id.AccountID, amount int64) error
	Debit(ctx context.Context, merchant id.AccountID, amount int64) error
	Balance(ctx context.Context, merchant id.AccountID) (int64, error)
}
