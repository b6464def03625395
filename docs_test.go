package vault_test

import (
	"context"
	"log"
	"log/slog"
	"testing"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/config"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/store/memory"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// A fixed clock keeps the example deterministic; production
		// deployments use the default system clock.
		clk := &fakeClock{now: 1_700_000_000}

		v := vault.New(store,
			vault.WithLogger(slog.Default()),
			vault.WithClock(clk),
		)

		// Start the engine
		ctx := context.Background()
		if err := v.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer v.Stop()

		// One-time ledger initialization
		admin := id.NewAccountID()
		cfg := &config.Config{
			Token:         id.NewAccountID(),
			TokenDecimals: 7,
			Admin:         admin,
			MinTopUp:      1_000_000, // 0.1 tokens
		}
		if err := v.Init(ctx, cfg); err != nil {
			t.Fatal(err)
		}

		// Create a subscription: 1 token every 30 days
		subscriber := id.NewAccountID()
		merchant := id.NewAccountID()
		subID, err := v.CreateSubscription(ctx, subscriber, merchant,
			10_000_000,  // amount per interval, smallest token unit
			30*24*60*60, // interval in seconds
			false,       // usage-based extensions disabled
		)
		if err != nil {
			t.Fatal(err)
		}

		// Fund it with five intervals of runway
		if err := v.Deposit(ctx, subID, subscriber, 50_000_000); err != nil {
			t.Fatal(err)
		}

		// Collect one interval (typically driven by a scheduler)
		clk.now += 30 * 24 * 60 * 60
		if err := v.Charge(ctx, subID); err != nil {
			t.Fatal(err)
		}

		// Size the deposit needed to cover the next six intervals
		needed, err := v.EstimateTopUp(ctx, subID, 6)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("top-up needed for 6 intervals: %d\n", needed)

		// The merchant's accrued balance is ready for payout
		accrued, err := v.MerchantBalance(ctx, merchant)
		if err != nil {
			t.Fatal(err)
		}
		if accrued != 10_000_000 {
			t.Fatalf("accrued: got %d, want 10000000", accrued)
		}
	})

	// Test batch charging example
	t.Run("BatchChargeExample", func(t *testing.T) {
		clk := &fakeClock{now: 1000}
		v, admin := newTestVault(t, clk, 0)
		ctx := context.Background()

		id1, _, _ := newFundedSubscription(t, v, 1000, 600, 3000)
		id2, _, _ := newFundedSubscription(t, v, 1000, 600, 3000)
		clk.now = 1600

		results, err := v.BatchCharge(ctx, admin, []uint64{id1, id2})
		if err != nil {
			t.Fatal(err)
		}
		for i, r := range results {
			if !r.Success {
				t.Errorf("subscription %d failed: code %d", i, r.ErrorCode)
			}
		}
	})
}
