package vault

import (
	"context"

	"github.com/xraph/vault/config"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// RecoveryReason classifies why stranded funds were recovered.
type RecoveryReason string

const (
	RecoveryReasonOrphanedDeposit RecoveryReason = "orphaned_deposit"
	RecoveryReasonRoundingDust    RecoveryReason = "rounding_dust"
	RecoveryReasonManual          RecoveryReason = "manual"
)

// RecoveryEvent records an admin-initiated recovery of funds that no
// subscription accounts for. The vault only books the event; moving the
// actual tokens is the caller's concern.
type RecoveryEvent struct {
	ID        id.RecoveryID  `json:"id"`
	Admin     id.AccountID   `json:"admin"`
	Recipient id.AccountID   `json:"recipient"`
	Amount    int64          `json:"amount"`
	Reason    RecoveryReason `json:"reason"`
	Timestamp uint64         `json:"timestamp"`
}

// Init writes the vault configuration exactly once. A second call fails
// with ErrAlreadyInitialized; the admin identity can only change later
// through RotateAdmin.
func (v *Vault) Init(ctx context.Context, cfg *config.Config) error {
	if cfg == nil || cfg.Token.IsNil() || cfg.Admin.IsNil() {
		return ErrInvalidInput
	}
	if cfg.MinTopUp < 0 {
		return ErrInvalidInput
	}

	cfg.Entity = types.NewEntity()
	if err := v.store.InitConfig(ctx, cfg); err != nil {
		return err
	}

	v.plugins.EmitVaultInitialized(ctx, cfg)

	v.logger.Info("vault initialized",
		"token", cfg.Token.String(),
		"token_decimals", cfg.TokenDecimals,
		"admin", cfg.Admin.String(),
		"min_topup", cfg.MinTopUp,
		"grace_period_seconds", cfg.GracePeriodSeconds,
	)

	return nil
}

// Config returns the stored vault configuration.
func (v *Vault) Config(ctx context.Context) (*config.Config, error) {
	return v.store.GetConfig(ctx)
}

// Admin returns the configured administrator identity.
func (v *Vault) Admin(ctx context.Context) (id.AccountID, error) {
	cfg, err := v.store.GetConfig(ctx)
	if err != nil {
		return id.Nil, err
	}
	return cfg.Admin, nil
}

// MinTopUp returns the configured minimum deposit.
func (v *Vault) MinTopUp(ctx context.Context) (int64, error) {
	cfg, err := v.store.GetConfig(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.MinTopUp, nil
}

// GracePeriod returns the configured grace window in seconds; an
// uninitialized vault reports zero.
func (v *Vault) GracePeriod(ctx context.Context) (uint64, error) {
	return v.gracePeriod(ctx)
}

// SetMinTopUp updates the minimum deposit. Admin-only.
func (v *Vault) SetMinTopUp(ctx context.Context, caller id.AccountID, minTopUp int64) error {
	if minTopUp < 0 {
		return ErrInvalidInput
	}
	cfg, err := v.requireAdminConfig(ctx, caller)
	if err != nil {
		return err
	}

	cfg.MinTopUp = minTopUp
	cfg.Touch()
	if err := v.store.UpdateConfig(ctx, cfg); err != nil {
		return err
	}

	v.logger.Info("min top-up updated", "min_topup", minTopUp)
	return nil
}

// SetGracePeriod updates the grace window. Admin-only.
func (v *Vault) SetGracePeriod(ctx context.Context, caller id.AccountID, seconds uint64) error {
	cfg, err := v.requireAdminConfig(ctx, caller)
	if err != nil {
		return err
	}

	cfg.GracePeriodSeconds = seconds
	cfg.Touch()
	if err := v.store.UpdateConfig(ctx, cfg); err != nil {
		return err
	}

	v.logger.Info("grace period updated", "grace_period_seconds", seconds)
	return nil
}

// RotateAdmin replaces the administrator identity. Only the current admin
// may rotate, and the change is announced through the plugin sink so
// off-vault systems can track the hand-over.
func (v *Vault) RotateAdmin(ctx context.Context, current, next id.AccountID) error {
	if next.IsNil() {
		return ErrInvalidInput
	}
	cfg, err := v.requireAdminConfig(ctx, current)
	if err != nil {
		return err
	}

	cfg.Admin = next
	cfg.Touch()
	if err := v.store.UpdateConfig(ctx, cfg); err != nil {
		return err
	}

	v.plugins.EmitAdminRotated(ctx, current.String(), next.String(), v.clock.Now())

	v.logger.Info("admin rotated",
		"previous", current.String(),
		"next", next.String(),
	)

	return nil
}

// RecoverStrandedFunds books an admin recovery of funds that no
// subscription accounts for. Amount must be positive. The event is
// published to the plugin sink; the actual token transfer happens outside
// the vault.
func (v *Vault) RecoverStrandedFunds(ctx context.Context, caller, recipient id.AccountID, amount int64, reason RecoveryReason) (*RecoveryEvent, error) {
	if _, err := v.requireAdminConfig(ctx, caller); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidRecoveryAmount
	}

	event := &RecoveryEvent{
		ID:        id.NewRecoveryID(),
		Admin:     caller,
		Recipient: recipient,
		Amount:    amount,
		Reason:    reason,
		Timestamp: v.clock.Now(),
	}

	v.plugins.EmitFundsRecovered(ctx, event)

	v.logger.Info("stranded funds recovered",
		"recovery_id", event.ID.String(),
		"recipient", recipient.String(),
		"amount", amount,
		"reason", string(reason),
	)

	return event, nil
}

// requireAdmin fails with ErrUnauthorized unless caller is the configured
// administrator. An uninitialized vault has no administrator, so every
// caller is rejected.
func (v *Vault) requireAdmin(ctx context.Context, caller id.AccountID) error {
	_, err := v.requireAdminConfig(ctx, caller)
	return err
}

func (v *Vault) requireAdminConfig(ctx context.Context, caller id.AccountID) (*config.Config, error) {
	cfg, err := v.store.GetConfig(ctx)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if caller.IsNil() || caller.String() != cfg.Admin.String() {
		return nil, ErrUnauthorized
	}
	return cfg, nil
}
