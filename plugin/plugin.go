// Package plugin provides an extensible plugin system for Vault.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, v interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// OnVaultInitialized is called when the vault configuration is written.
type OnVaultInitialized interface {
	Plugin
	OnVaultInitialized(ctx context.Context, cfg interface{}) error
}

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated is called when a new subscription is created.
type OnSubscriptionCreated interface {
	Plugin
	OnSubscriptionCreated(ctx context.Context, sub interface{}) error
}

// OnSubscriptionCanceled is called when a subscription reaches its
// terminal state.
type OnSubscriptionCanceled interface {
	Plugin
	OnSubscriptionCanceled(ctx context.Context, sub interface{}) error
}

// OnStatusChanged is called whenever a subscription's status moves along
// an edge of the transition table, including the grace-period writes made
// by failing charge attempts.
type OnStatusChanged interface {
	Plugin
	OnStatusChanged(ctx context.Context, sub interface{}, from, to string) error
}

// ──────────────────────────────────────────────────
// Charge hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCharged is called after a successful charge. amount is in
// the settlement token's smallest unit; ledgerTime is the charge anchor.
type OnSubscriptionCharged interface {
	Plugin
	OnSubscriptionCharged(ctx context.Context, sub interface{}, amount int64, ledgerTime uint64) error
}

// OnChargeFailed is called after a failed charge attempt with the stable
// numeric error code.
type OnChargeFailed interface {
	Plugin
	OnChargeFailed(ctx context.Context, subID uint64, code uint32) error
}

// OnBatchCompleted is called after a batch charge or auto-charge cycle.
type OnBatchCompleted interface {
	Plugin
	OnBatchCompleted(ctx context.Context, total, failed int, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Funding hooks
// ──────────────────────────────────────────────────

// OnDeposit is called when a subscriber tops up a prepaid balance.
type OnDeposit interface {
	Plugin
	OnDeposit(ctx context.Context, sub interface{}, amount int64) error
}

// OnWithdrawal is called when a subscriber withdraws remaining prepaid
// funds after cancellation.
type OnWithdrawal interface {
	Plugin
	OnWithdrawal(ctx context.Context, sub interface{}, amount int64) error
}

// OnPayout is called when a merchant withdraws accrued settlement funds.
type OnPayout interface {
	Plugin
	OnPayout(ctx context.Context, payout interface{}) error
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnAdminRotated is called when the administrator identity changes hands.
type OnAdminRotated interface {
	Plugin
	OnAdminRotated(ctx context.Context, previous, next string, ledgerTime uint64) error
}

// OnFundsRecovered is called when the administrator books a recovery of
// stranded funds.
type OnFundsRecovered interface {
	Plugin
	OnFundsRecovered(ctx context.Context, event interface{}) error
}
