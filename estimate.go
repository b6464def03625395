package vault

import (
	"context"
	"math"

	"github.com/xraph/vault/types"
)

// EstimateTopUp computes the deposit shortfall for the next n charges of a
// subscription: the per-interval amount times n, less whatever prepaid
// balance is already held, floored at zero. A read-only projection: it
// never mutates state and never fails due to balance, only for an unknown
// key (or an astronomically large n overflowing the product).
func (v *Vault) EstimateTopUp(ctx context.Context, subID uint64, intervals uint64) (int64, error) {
	sub, err := v.store.GetSubscription(ctx, subID)
	if err != nil {
		return 0, err
	}

	if intervals == 0 {
		return 0, nil
	}
	if intervals > uint64(math.MaxInt64) {
		return 0, ErrOverflow
	}

	required, ok := types.MulI64(sub.Amount, int64(intervals))
	if !ok {
		return 0, ErrOverflow
	}

	topup, ok := types.SubI64(required, sub.PrepaidBalance)
	if !ok {
		return 0, ErrOverflow
	}
	if topup < 0 {
		return 0, nil
	}
	return topup, nil
}
