package vault

import (
	"context"
	"time"

	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

// BatchChargeResult is the outcome of one charge attempt inside a batch.
// ErrorCode is zero iff Success.
type BatchChargeResult struct {
	Success   bool   `json:"success"`
	ErrorCode uint32 `json:"error_code"`
}

// Charge attempts to collect one interval's payment for the subscription
// at the current ledger time.
func (v *Vault) Charge(ctx context.Context, subID uint64) error {
	grace, err := v.gracePeriod(ctx)
	if err != nil {
		return err
	}
	return v.chargeOne(ctx, subID, v.clock.Now(), grace)
}

// ChargeAt is the administrative escape hatch: it charges at an explicit
// ledger time instead of the clock reading. Admin-only; intended for
// backfill and test harnesses, not the production charge path.
func (v *Vault) ChargeAt(ctx context.Context, caller AccountID, subID uint64, at uint64) error {
	if err := v.requireAdmin(ctx, caller); err != nil {
		return err
	}
	grace, err := v.gracePeriod(ctx)
	if err != nil {
		return err
	}
	return v.chargeOne(ctx, subID, at, grace)
}

// BatchCharge applies the charge engine to each subscription id in order,
// at a single ledger time read once for the whole batch. The result list
// is length- and order-preserving; one item's failure never aborts
// processing of subsequent items. Admin-only.
func (v *Vault) BatchCharge(ctx context.Context, caller AccountID, subIDs []uint64) ([]BatchChargeResult, error) {
	if err := v.requireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	grace, err := v.gracePeriod(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	now := v.clock.Now()

	results := make([]BatchChargeResult, 0, len(subIDs))
	failed := 0
	for _, subID := range subIDs {
		chargeErr := v.chargeOne(ctx, subID, now, grace)
		if chargeErr != nil {
			failed++
			results = append(results, BatchChargeResult{Success: false, ErrorCode: Code(chargeErr)})
			continue
		}
		results = append(results, BatchChargeResult{Success: true, ErrorCode: CodeOK})
	}

	v.plugins.EmitBatchCompleted(ctx, len(subIDs), failed, time.Since(start))

	v.logger.Debug("batch charge completed",
		"total", len(subIDs),
		"failed", failed,
		"ledger_time", now,
	)

	return results, nil
}

// chargeOne evaluates and applies a single charge. The first failing step
// wins; only the insufficient-funds branches and the success branch write
// to the store. The insufficient-funds branches persist a status change on
// an otherwise-failing call on purpose: repeated failed attempts converge
// the subscription into grace and then into insufficient balance without a
// separate administrative sweep.
func (v *Vault) chargeOne(ctx context.Context, subID uint64, now uint64, gracePeriod uint64) error {
	v.locks.Lock(subID)
	defer v.locks.Unlock(subID)

	err := v.applyCharge(ctx, subID, now, gracePeriod)
	if err != nil {
		v.plugins.EmitChargeFailed(ctx, subID, Code(err))
	}
	return err
}

func (v *Vault) applyCharge(ctx context.Context, subID uint64, now uint64, gracePeriod uint64) error {
	sub, err := v.store.GetSubscription(ctx, subID)
	if err != nil {
		return err
	}

	if !sub.Status.Chargeable() {
		return ErrNotActive
	}

	nextAllowed, ok := types.AddU64(sub.LastPaymentTimestamp, sub.IntervalSeconds)
	if !ok {
		return ErrOverflow
	}
	if now < nextAllowed {
		return ErrIntervalNotElapsed
	}

	if sub.PrepaidBalance < sub.Amount {
		graceExpires, ok := types.AddU64(nextAllowed, gracePeriod)
		if !ok {
			return ErrOverflow
		}

		if now < graceExpires {
			// Within the grace window: hold (or move) the subscription
			// in grace, but the charge itself still fails.
			if sub.Status != subscription.StatusGracePeriod {
				if err := v.transition(ctx, sub, subscription.StatusGracePeriod); err != nil {
					return err
				}
			}
			return ErrInsufficientBalance
		}

		// Grace window expired.
		if err := v.transition(ctx, sub, subscription.StatusInsufficientBalance); err != nil {
			return err
		}
		return ErrInsufficientBalance
	}

	// Sufficient funds.
	balance, ok := types.SubI64(sub.PrepaidBalance, sub.Amount)
	if !ok {
		return ErrOverflow
	}

	prev := sub.Status
	sub.PrepaidBalance = balance
	sub.LastPaymentTimestamp = now
	if sub.Status == subscription.StatusGracePeriod {
		if err := subscription.ValidateTransition(sub.Status, subscription.StatusActive); err != nil {
			return ErrInvalidStatusTransition
		}
		sub.Status = subscription.StatusActive
	}
	sub.Touch()

	// Settlement: the subscriber debit and the merchant credit land
	// together or not at all.
	if err := v.store.ApplyCharge(ctx, sub, sub.Amount); err != nil {
		return err
	}

	if prev != sub.Status {
		v.plugins.EmitStatusChanged(ctx, sub, string(prev), string(sub.Status))
	}
	v.plugins.EmitSubscriptionCharged(ctx, sub, sub.Amount, now)

	return nil
}

// transition validates, applies, and persists a status change, touching
// nothing else on the record.
func (v *Vault) transition(ctx context.Context, sub *subscription.Subscription, to subscription.Status) error {
	if err := subscription.ValidateTransition(sub.Status, to); err != nil {
		return ErrInvalidStatusTransition
	}

	from := sub.Status
	sub.Status = to
	sub.Touch()
	if err := v.store.UpdateSubscription(ctx, sub); err != nil {
		return err
	}

	v.plugins.EmitStatusChanged(ctx, sub, string(from), string(to))
	return nil
}

// gracePeriod reads the configured grace window; an uninitialized vault
// defaults to zero rather than failing the charge.
func (v *Vault) gracePeriod(ctx context.Context) (uint64, error) {
	cfg, err := v.store.GetConfig(ctx)
	if err != nil {
		if IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return cfg.GracePeriodSeconds, nil
}

// autoChargeWorker periodically charges due subscriptions.
func (v *Vault) autoChargeWorker(ctx context.Context) {
	defer v.wg.Done()

	ticker := time.NewTicker(v.autoChargeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-v.stopChan:
			return
		case <-ticker.C:
			v.runAutoCharge(ctx)
		}
	}
}

func (v *Vault) runAutoCharge(ctx context.Context) {
	grace, err := v.gracePeriod(ctx)
	if err != nil {
		v.logger.Error("auto-charge: read grace period", "error", err)
		return
	}

	now := v.clock.Now()
	due, err := v.store.ListDueSubscriptions(ctx, now, v.autoChargeBatch)
	if err != nil {
		v.logger.Error("auto-charge: list due subscriptions", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	start := time.Now()
	failed := 0
	for _, subID := range due {
		if chargeErr := v.chargeOne(ctx, subID, now, grace); chargeErr != nil {
			failed++
		}
	}

	v.plugins.EmitBatchCompleted(ctx, len(due), failed, time.Since(start))

	v.logger.Debug("auto-charge cycle completed",
		"due", len(due),
		"failed", failed,
		"ledger_time", now,
	)
}
