// Package audithook bridges Vault lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/vault/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnVaultInitialized     = (*Extension)(nil)
	_ plugin.OnSubscriptionCreated  = (*Extension)(nil)
	_ plugin.OnSubscriptionCanceled = (*Extension)(nil)
	_ plugin.OnStatusChanged        = (*Extension)(nil)
	_ plugin.OnSubscriptionCharged  = (*Extension)(nil)
	_ plugin.OnChargeFailed         = (*Extension)(nil)
	_ plugin.OnBatchCompleted       = (*Extension)(nil)
	_ plugin.OnDeposit              = (*Extension)(nil)
	_ plugin.OnWithdrawal           = (*Extension)(nil)
	_ plugin.OnPayout               = (*Extension)(nil)
	_ plugin.OnAdminRotated         = (*Extension)(nil)
	_ plugin.OnFundsRecovered       = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly; callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Vault lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnVaultInitialized implements plugin.OnVaultInitialized.
func (e *Extension) OnVaultInitialized(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionVaultInitialized, SeverityInfo, OutcomeSuccess,
		ResourceVault, "", CategoryAdmin, nil,
		"event", "vault_initialized",
	)
}

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (e *Extension) OnSubscriptionCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionSubscriptionCreated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, "", CategorySubscription, nil,
		"event", "subscription_created",
	)
}

// OnSubscriptionCanceled implements plugin.OnSubscriptionCanceled.
func (e *Extension) OnSubscriptionCanceled(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionSubscriptionCanceled, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, "", CategorySubscription, nil,
		"event", "subscription_canceled",
	)
}

// OnStatusChanged implements plugin.OnStatusChanged.
func (e *Extension) OnStatusChanged(ctx context.Context, _ interface{}, from, to string) error {
	severity := SeverityInfo
	if to == "grace_period" || to == "insufficient_balance" {
		severity = SeverityWarning
	}
	return e.record(ctx, ActionStatusChanged, severity, OutcomeSuccess,
		ResourceSubscription, "", CategorySubscription, nil,
		"from", from,
		"to", to,
	)
}

// ──────────────────────────────────────────────────
// Charge hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCharged implements plugin.OnSubscriptionCharged.
func (e *Extension) OnSubscriptionCharged(ctx context.Context, _ interface{}, amount int64, ledgerTime uint64) error {
	return e.record(ctx, ActionChargeSucceeded, SeverityInfo, OutcomeSuccess,
		ResourceCharge, "", CategoryBilling, nil,
		"amount", amount,
		"ledger_time", ledgerTime,
	)
}

// OnChargeFailed implements plugin.OnChargeFailed.
func (e *Extension) OnChargeFailed(ctx context.Context, subID uint64, code uint32) error {
	return e.record(ctx, ActionChargeFailed, SeverityWarning, OutcomeFailure,
		ResourceCharge, fmt.Sprintf("%d", subID), CategoryBilling, nil,
		"subscription_id", subID,
		"error_code", code,
	)
}

// OnBatchCompleted implements plugin.OnBatchCompleted.
func (e *Extension) OnBatchCompleted(ctx context.Context, total, failed int, elapsed time.Duration) error {
	outcome := OutcomeSuccess
	if failed > 0 {
		outcome = OutcomePartial
	}
	if failed == total && total > 0 {
		outcome = OutcomeFailure
	}
	return e.record(ctx, ActionBatchCompleted, SeverityInfo, outcome,
		ResourceCharge, "", CategoryBilling, nil,
		"total", total,
		"failed", failed,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Funding hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (e *Extension) OnDeposit(ctx context.Context, _ interface{}, amount int64) error {
	return e.record(ctx, ActionDeposit, SeverityInfo, OutcomeSuccess,
		ResourceFunds, "", CategoryPayment, nil,
		"amount", amount,
	)
}

// OnWithdrawal implements plugin.OnWithdrawal.
func (e *Extension) OnWithdrawal(ctx context.Context, _ interface{}, amount int64) error {
	return e.record(ctx, ActionWithdrawal, SeverityInfo, OutcomeSuccess,
		ResourceFunds, "", CategoryPayment, nil,
		"amount", amount,
	)
}

// OnPayout implements plugin.OnPayout.
func (e *Extension) OnPayout(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionPayout, SeverityInfo, OutcomeSuccess,
		ResourceFunds, "", CategoryPayment, nil,
		"event", "payout",
	)
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnAdminRotated implements plugin.OnAdminRotated.
func (e *Extension) OnAdminRotated(ctx context.Context, previous, next string, ledgerTime uint64) error {
	return e.record(ctx, ActionAdminRotated, SeverityCritical, OutcomeSuccess,
		ResourceVault, "", CategoryAdmin, nil,
		"previous", previous,
		"next", next,
		"ledger_time", ledgerTime,
	)
}

// OnFundsRecovered implements plugin.OnFundsRecovered.
func (e *Extension) OnFundsRecovered(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionFundsRecovered, SeverityWarning, OutcomeSuccess,
		ResourceVault, "", CategoryAdmin, nil,
		"event", "funds_recovered",
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
