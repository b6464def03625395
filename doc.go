// Package vault provides a prepaid recurring-billing settlement engine for
// Go applications.
//
// Vault is designed as a library, not a service. Import it directly into
// your Go application. It tracks per-subscription prepaid balances,
// enforces billing intervals, and moves each subscription through a
// bounded lifecycle (active, paused, grace period, insufficient balance,
// cancelled) as charges succeed or fail. It provides:
//
//   - An exhaustively validated status state machine
//   - An overflow-safe single-charge engine with grace-period admission
//   - A batch-charge orchestrator with per-item failure isolation
//   - A top-up estimator for sizing deposits
//   - Merchant settlement balances, listing, and payouts
//   - Pluggable storage (memory, SQLite, PostgreSQL, MongoDB)
//   - Lifecycle plugins for audit trails and metrics
//
// # Quick Start
//
// Create a vault instance with your preferred store:
//
//	import (
//	    "github.com/xraph/vault"
//	    "github.com/xraph/vault/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(db)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create vault
//	v := vault.New(store)
//
//	// Start the vault (runs migrations, begins background workers)
//	if err := v.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Stop()
//
// # Core Concepts
//
// A subscription binds a subscriber to a merchant for a fixed amount per
// interval, paid from a prepaid balance the subscriber funds in advance:
//
//	subID, err := v.CreateSubscription(ctx, subscriber, merchant,
//	    10_000_000,        // amount per interval, smallest token unit
//	    30*24*60*60,       // interval in seconds
//	    false,             // usage-based extensions disabled
//	)
//
//	// Fund it
//	err = v.Deposit(ctx, subID, subscriber, 50_000_000)
//
//	// Collect one interval (typically driven by a scheduler)
//	err = v.Charge(ctx, subID)
//
// Charges use sliding-window semantics: a successful charge re-anchors the
// next eligible time to the moment of collection, so a late charge never
// lets the subscriber "catch up" to the original schedule. When funds run
// short the subscription is held in a configurable grace window before
// being parked in insufficient balance; a deposit plus Resume recovers it.
//
// Batch charging applies the same engine across many subscriptions with
// per-item failure isolation and stable numeric error codes:
//
//	results, err := v.BatchCharge(ctx, admin, ids)
//	for i, r := range results {
//	    if !r.Success {
//	        log.Printf("subscription %d failed: code %d", ids[i], r.ErrorCode)
//	    }
//	}
//
// # Money and Time
//
// All monetary values are int64 in the settlement token's smallest unit
// and all ledger timestamps are uint64 seconds; every addition,
// subtraction, and multiplication on them is overflow-checked and surfaces
// as ErrOverflow before any state is written. The ledger clock is an
// explicit Clock capability (see WithClock), never ambient time.
//
// # Integration
//
// Vault integrates with the Forgery ecosystem: the extension package
// adapts it as a Forge extension with DI registration and YAML
// configuration, audit_hook bridges lifecycle events to an audit trail,
// and observability records metrics through a MetricFactory.
package vault
