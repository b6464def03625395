package subscription

import (
	"context"

	"github.com/xraph/vault/id"
)

// Store is the persistence interface for subscription records.
//
// Create assigns and returns the record's uint64 key from a monotonic
// sequence; keys are never reused. ListByMerchant returns records in
// insertion order (the merchant secondary index), with offset/limit
// pagination. ListDue returns the ids of chargeable subscriptions whose
// interval has elapsed at the given ledger time, in key order.
type Store interface {
	Create(ctx context.Context, s *Subscription) (uint64, error)
	Get(ctx context.Context, subID uint64) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
	ListByMerchant(ctx context.Context, merchant id.AccountID, offset, limit int) ([]*Subscription, error)
	CountByMerchant(ctx context.Context, merchant id.AccountID) (int64, error)
	ListDue(ctx context.Context, now uint64, limit int) ([]uint64, error)
}

// ListOpts carries pagination options for merchant-indexed listing.
type ListOpts struct {
	Offset int
	Limit  int
}
