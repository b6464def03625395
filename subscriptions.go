package vault

import (
	"context"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

// CreateSubscription stores a new billing agreement and returns its key.
// Amount must be positive; it is validated here once and never re-checked
// per charge. The record starts Active with an empty prepaid balance
// anchored at the current ledger time; funding happens through Deposit.
func (v *Vault) CreateSubscription(ctx context.Context, subscriber, merchant id.AccountID, amount int64, intervalSeconds uint64, usageEnabled bool) (uint64, error) {
	if subscriber.IsNil() || merchant.IsNil() {
		return 0, ErrInvalidInput
	}
	if amount <= 0 || intervalSeconds == 0 {
		return 0, ErrInvalidInput
	}

	sub := &subscription.Subscription{
		Entity:               types.NewEntity(),
		Subscriber:           subscriber,
		Merchant:             merchant,
		Amount:               amount,
		IntervalSeconds:      intervalSeconds,
		LastPaymentTimestamp: v.clock.Now(),
		Status:               subscription.StatusActive,
		PrepaidBalance:       0,
		UsageEnabled:         usageEnabled,
	}

	subID, err := v.store.CreateSubscription(ctx, sub)
	if err != nil {
		return 0, err
	}
	sub.ID = subID

	v.plugins.EmitSubscriptionCreated(ctx, sub)

	v.logger.Debug("subscription created",
		"subscription_id", subID,
		"merchant", merchant.String(),
		"amount", amount,
		"interval_seconds", intervalSeconds,
	)

	return subID, nil
}

// GetSubscription retrieves a subscription by key.
func (v *Vault) GetSubscription(ctx context.Context, subID uint64) (*subscription.Subscription, error) {
	return v.store.GetSubscription(ctx, subID)
}

// Deposit adds prepaid funds to a subscription. The caller must be the
// subscriber, the deposit must meet the configured minimum top-up, and a
// cancelled subscription accepts no further funds.
func (v *Vault) Deposit(ctx context.Context, subID uint64, subscriber id.AccountID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidInput
	}

	cfg, err := v.store.GetConfig(ctx)
	if err != nil {
		return err
	}
	if amount < cfg.MinTopUp {
		return ErrBelowMinimumTopUp
	}

	v.locks.Lock(subID)
	defer v.locks.Unlock(subID)

	sub, err := v.store.GetSubscription(ctx, subID)
	if err != nil {
		return err
	}
	if subscriber.String() != sub.Subscriber.String() {
		return ErrUnauthorized
	}
	if sub.Status.Terminal() {
		return ErrNotActive
	}

	balance, ok := types.AddI64(sub.PrepaidBalance, amount)
	if !ok {
		return ErrOverflow
	}
	sub.PrepaidBalance = balance
	sub.Touch()

	if err := v.store.UpdateSubscription(ctx, sub); err != nil {
		return err
	}

	v.plugins.EmitDeposit(ctx, sub, amount)

	v.logger.Debug("deposit received",
		"subscription_id", subID,
		"amount", amount,
		"balance", balance,
	)

	return nil
}

// Cancel moves a subscription to its terminal state. Either the
// subscriber or the merchant may cancel; cancelling an already-cancelled
// subscription is a no-op.
func (v *Vault) Cancel(ctx context.Context, subID uint64, authorizer id.AccountID) error {
	v.locks.Lock(subID)
	defer v.locks.Unlock(subID)

	sub, err := v.store.GetSubscription(ctx, subID)
	if err != nil {
		return err
	}
	if sub.Status == subscription.StatusCancelled {
		return nil
	}
	if authorizer.String() != sub.Subscriber.String() && authorizer.String() != sub.Merchant.String() {
		return ErrUnauthorized
	}

	if err := v.transition(ctx, sub, subscription.StatusCancelled); err != nil {
		return err
	}

	v.plugins.EmitSubscriptionCanceled(ctx, sub)
	return nil
}

// Pause suspends charging. Subscriber-gated; pausing an already-paused
// subscription is a validated self-transition and succeeds.
func (v *Vault) Pause(ctx context.Context, subID uint64, subscriber id.AccountID) error {
	return v.subscriberTransition(ctx, subID, subscriber, subscription.StatusPaused)
}

// Resume reactivates a paused subscription. Per the transition table it
// also recovers a subscription parked in insufficient balance, typically
// after a deposit replenished the prepaid funds.
func (v *Vault) Resume(ctx context.Context, subID uint64, subscriber id.AccountID) error {
	return v.subscriberTransition(ctx, subID, subscriber, subscription.StatusActive)
}

func (v *Vault) subscriberTransition(ctx context.Context, subID uint64, subscriber id.AccountID, to subscription.Status) error {
	v.locks.Lock(subID)
	defer v.locks.Unlock(subID)

	sub, err := v.store.GetSubscription(ctx, subID)
	if err != nil {
		return err
	}
	if subscriber.String() != sub.Subscriber.String() {
		return ErrUnauthorized
	}
	if sub.Status == to {
		return nil
	}

	return v.transition(ctx, sub, to)
}

// WithdrawSubscriberFunds refunds the remaining prepaid balance to the
// subscriber. Only permitted after cancellation, to fit the cancel ->
// refund flow cleanly. Returns the refunded amount, which may be zero.
func (v *Vault) WithdrawSubscriberFunds(ctx context.Context, subID uint64, subscriber id.AccountID) (int64, error) {
	v.locks.Lock(subID)
	defer v.locks.Unlock(subID)

	sub, err := v.store.GetSubscription(ctx, subID)
	if err != nil {
		return 0, err
	}
	if subscriber.String() != sub.Subscriber.String() {
		return 0, ErrUnauthorized
	}
	if sub.Status != subscription.StatusCancelled {
		return 0, ErrNotActive
	}

	refund := sub.PrepaidBalance
	if refund > 0 {
		sub.PrepaidBalance = 0
		sub.Touch()
		if err := v.store.UpdateSubscription(ctx, sub); err != nil {
			return 0, err
		}
	}

	v.plugins.EmitWithdrawal(ctx, sub, refund)

	v.logger.Debug("subscriber funds withdrawn",
		"subscription_id", subID,
		"amount", refund,
	)

	return refund, nil
}

// WithdrawMerchantFunds pays out part of a merchant's accrued settlement
// balance. Fails with ErrInsufficientBalance when the accrual is short;
// the balance is never overdrawn.
func (v *Vault) WithdrawMerchantFunds(ctx context.Context, merchant id.AccountID, amount int64) (*Payout, error) {
	if merchant.IsNil() || amount <= 0 {
		return nil, ErrInvalidInput
	}

	if err := v.store.DebitMerchant(ctx, merchant, amount); err != nil {
		return nil, err
	}

	payout := &Payout{
		ID:        id.NewPayoutID(),
		Merchant:  merchant,
		Amount:    amount,
		Timestamp: v.clock.Now(),
	}

	v.plugins.EmitPayout(ctx, payout)

	v.logger.Debug("merchant funds withdrawn",
		"payout_id", payout.ID.String(),
		"merchant", merchant.String(),
		"amount", amount,
	)

	return payout, nil
}

// MerchantBalance returns a merchant's accrued, not-yet-withdrawn
// settlement balance.
func (v *Vault) MerchantBalance(ctx context.Context, merchant id.AccountID) (int64, error) {
	return v.store.MerchantBalance(ctx, merchant)
}

// SubscriptionsByMerchant lists a merchant's subscriptions in insertion
// order with offset/limit pagination.
func (v *Vault) SubscriptionsByMerchant(ctx context.Context, merchant id.AccountID, offset, limit int) ([]*subscription.Subscription, error) {
	return v.store.ListSubscriptionsByMerchant(ctx, merchant, offset, limit)
}

// MerchantSubscriptionCount returns how many subscriptions reference the
// merchant, in any status.
func (v *Vault) MerchantSubscriptionCount(ctx context.Context, merchant id.AccountID) (int64, error) {
	return v.store.CountSubscriptionsByMerchant(ctx, merchant)
}
