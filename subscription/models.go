package subscription

import (
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusActive              Status = "active"
	StatusPaused              Status = "paused"
	StatusGracePeriod         Status = "grace_period"
	StatusInsufficientBalance Status = "insufficient_balance"
	StatusCancelled           Status = "cancelled"
)

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusGracePeriod, StatusInsufficientBalance, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s is an absorbing state. A cancelled
// subscription is never mutated again by the charge engine.
func (s Status) Terminal() bool { return s == StatusCancelled }

// Chargeable reports whether the charge engine may attempt a charge in
// this status.
func (s Status) Chargeable() bool {
	return s == StatusActive || s == StatusGracePeriod
}

// Subscription is one recurring-billing agreement between a subscriber and
// a merchant, backed by a prepaid balance held by the vault.
//
// ID is a uint64 sequence key assigned by the store at creation,
// monotonically increasing and never reused. Amounts are in the settlement
// token's smallest unit; timestamps are ledger time in seconds.
type Subscription struct {
	types.Entity
	ID                   uint64        `json:"id"`
	Subscriber           id.AccountID  `json:"subscriber"`
	Merchant             id.AccountID  `json:"merchant"`
	Amount               int64         `json:"amount"`
	IntervalSeconds      uint64        `json:"interval_seconds"`
	LastPaymentTimestamp uint64        `json:"last_payment_timestamp"`
	Status               Status        `json:"status"`
	PrepaidBalance       int64         `json:"prepaid_balance"`
	UsageEnabled         bool          `json:"usage_enabled"`
}

// NextAllowed returns the earliest ledger time at which the next charge is
// legal, and false if the addition overflows uint64.
func (s *Subscription) NextAllowed() (uint64, bool) {
	return types.AddU64(s.LastPaymentTimestamp, s.IntervalSeconds)
}

// Due reports whether the subscription is eligible for a charge at the
// given ledger time, ignoring balance. Equality with the next allowed time
// is the earliest legal charge moment.
func (s *Subscription) Due(now uint64) bool {
	next, ok := s.NextAllowed()
	return ok && s.Status.Chargeable() && now >= next
}
