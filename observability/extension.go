// Package observability provides a metrics extension for Vault that records
// lifecycle event counts through an injected MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/vault/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnVaultInitialized     = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCreated  = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCanceled = (*MetricsExtension)(nil)
	_ plugin.OnStatusChanged        = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCharged  = (*MetricsExtension)(nil)
	_ plugin.OnChargeFailed         = (*MetricsExtension)(nil)
	_ plugin.OnBatchCompleted       = (*MetricsExtension)(nil)
	_ plugin.OnDeposit              = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawal           = (*MetricsExtension)(nil)
	_ plugin.OnPayout               = (*MetricsExtension)(nil)
	_ plugin.OnAdminRotated         = (*MetricsExtension)(nil)
	_ plugin.OnFundsRecovered       = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Vault plugin to automatically track billing metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Subscription metrics
	SubscriptionCreated  Counter
	SubscriptionCanceled Counter
	StatusTransitions    Counter
	GraceEntered         Counter
	BalanceExhausted     Counter

	// Charge metrics
	ChargesSucceeded Counter
	ChargesFailed    Counter
	ChargeVolume     Histogram

	// Batch metrics
	BatchSize    Histogram
	BatchFailed  Histogram
	BatchLatency Histogram

	// Funding metrics
	Deposits      Counter
	DepositVolume Histogram
	Withdrawals   Counter
	Payouts       Counter

	// Administrative metrics
	AdminRotations  Counter
	FundsRecoveries Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Subscription metrics
		SubscriptionCreated:  factory.Counter("vault.subscription.created"),
		SubscriptionCanceled: factory.Counter("vault.subscription.canceled"),
		StatusTransitions:    factory.Counter("vault.subscription.status_transitions"),
		GraceEntered:         factory.Counter("vault.subscription.grace_entered"),
		BalanceExhausted:     factory.Counter("vault.subscription.balance_exhausted"),

		// Charge metrics
		ChargesSucceeded: factory.Counter("vault.charge.succeeded"),
		ChargesFailed:    factory.Counter("vault.charge.failed"),
		ChargeVolume:     factory.Histogram("vault.charge.amount"),

		// Batch metrics
		BatchSize:    factory.Histogram("vault.batch.size"),
		BatchFailed:  factory.Histogram("vault.batch.failed"),
		BatchLatency: factory.Histogram("vault.batch.latency_ms"),

		// Funding metrics
		Deposits:      factory.Counter("vault.deposit.count"),
		DepositVolume: factory.Histogram("vault.deposit.amount"),
		Withdrawals:   factory.Counter("vault.withdrawal.count"),
		Payouts:       factory.Counter("vault.payout.count"),

		// Administrative metrics
		AdminRotations:  factory.Counter("vault.admin.rotations"),
		FundsRecoveries: factory.Counter("vault.admin.funds_recoveries"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// OnVaultInitialized implements plugin.OnVaultInitialized.
func (m *MetricsExtension) OnVaultInitialized(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (m *MetricsExtension) OnSubscriptionCreated(_ context.Context, _ interface{}) error {
	m.SubscriptionCreated.Inc()
	return nil
}

// OnSubscriptionCanceled implements plugin.OnSubscriptionCanceled.
func (m *MetricsExtension) OnSubscriptionCanceled(_ context.Context, _ interface{}) error {
	m.SubscriptionCanceled.Inc()
	return nil
}

// OnStatusChanged implements plugin.OnStatusChanged.
func (m *MetricsExtension) OnStatusChanged(_ context.Context, _ interface{}, _, to string) error {
	m.StatusTransitions.Inc()
	switch to {
	case "grace_period":
		m.GraceEntered.Inc()
	case "insufficient_balance":
		m.BalanceExhausted.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Charge hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCharged implements plugin.OnSubscriptionCharged.
func (m *MetricsExtension) OnSubscriptionCharged(_ context.Context, _ interface{}, amount int64, _ uint64) error {
	m.ChargesSucceeded.Inc()
	m.ChargeVolume.Observe(float64(amount))
	return nil
}

// OnChargeFailed implements plugin.OnChargeFailed.
func (m *MetricsExtension) OnChargeFailed(_ context.Context, _ uint64, _ uint32) error {
	m.ChargesFailed.Inc()
	return nil
}

// OnBatchCompleted implements plugin.OnBatchCompleted.
func (m *MetricsExtension) OnBatchCompleted(_ context.Context, total, failed int, elapsed time.Duration) error {
	m.BatchSize.Observe(float64(total))
	m.BatchFailed.Observe(float64(failed))
	m.BatchLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// ──────────────────────────────────────────────────
// Funding hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (m *MetricsExtension) OnDeposit(_ context.Context, _ interface{}, amount int64) error {
	m.Deposits.Inc()
	m.DepositVolume.Observe(float64(amount))
	return nil
}

// OnWithdrawal implements plugin.OnWithdrawal.
func (m *MetricsExtension) OnWithdrawal(_ context.Context, _ interface{}, _ int64) error {
	m.Withdrawals.Inc()
	return nil
}

// OnPayout implements plugin.OnPayout.
func (m *MetricsExtension) OnPayout(_ context.Context, _ interface{}) error {
	m.Payouts.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnAdminRotated implements plugin.OnAdminRotated.
func (m *MetricsExtension) OnAdminRotated(_ context.Context, _, _ string, _ uint64) error {
	m.AdminRotations.Inc()
	return nil
}

// OnFundsRecovered implements plugin.OnFundsRecovered.
func (m *MetricsExtension) OnFundsRecovered(_ context.Context, _ interface{}) error {
	m.FundsRecoveries.Inc()
	return nil
}
