package vault_test

import (
	"context"
	"errors"
	"testing"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/subscription"
)

func TestBatchChargeIsolation(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, admin := newTestVault(t, clk, 0)
	ctx := context.Background()

	// Three due subscriptions, the middle one unfunded.
	first, _, _ := newFundedSubscription(t, v, 1000, 600, 3000)
	second, _, _ := newFundedSubscription(t, v, 1000, 600, 0)
	third, _, _ := newFundedSubscription(t, v, 1000, 600, 3000)

	clk.now = 1600
	results, err := v.BatchCharge(ctx, admin, []uint64{first, second, third})
	if err != nil {
		t.Fatalf("batch charge: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results: got %d, want 3", len(results))
	}

	want := []vault.BatchChargeResult{
		{Success: true, ErrorCode: vault.CodeOK},
		{Success: false, ErrorCode: vault.CodeInsufficientBalance},
		{Success: true, ErrorCode: vault.CodeOK},
	}
	for i, r := range results {
		if r != want[i] {
			t.Errorf("result %d: got %+v, want %+v", i, r, want[i])
		}
	}

	// The middle failure must not have disturbed its neighbors.
	if got := mustGet(t, v, first).PrepaidBalance; got != 2000 {
		t.Errorf("first balance: got %d, want 2000", got)
	}
	if got := mustGet(t, v, third).PrepaidBalance; got != 2000 {
		t.Errorf("third balance: got %d, want 2000", got)
	}
	if got := mustGet(t, v, second).Status; got != subscription.StatusInsufficientBalance {
		t.Errorf("second status: got %s, want insufficient_balance", got)
	}
}

func TestBatchChargeMixedFailures(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, admin := newTestVault(t, clk, 0)
	ctx := context.Background()

	funded, _, _ := newFundedSubscription(t, v, 1000, 600, 3000)
	notDue, _, _ := newFundedSubscription(t, v, 1000, 60_000, 3000)
	paused, subscriber, _ := newFundedSubscription(t, v, 1000, 600, 3000)
	if err := v.Pause(ctx, paused, subscriber); err != nil {
		t.Fatal(err)
	}

	clk.now = 1600
	results, err := v.BatchCharge(ctx, admin, []uint64{funded, 9999, notDue, paused})
	if err != nil {
		t.Fatalf("batch charge: %v", err)
	}

	want := []vault.BatchChargeResult{
		{Success: true, ErrorCode: vault.CodeOK},
		{Success: false, ErrorCode: vault.CodeNotFound},
		{Success: false, ErrorCode: vault.CodeIntervalNotElapsed},
		{Success: false, ErrorCode: vault.CodeNotActive},
	}
	for i, r := range results {
		if r != want[i] {
			t.Errorf("result %d: got %+v, want %+v", i, r, want[i])
		}
	}
}

func TestBatchChargeSingleTimeAnchor(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, admin := newTestVault(t, clk, 0)
	ctx := context.Background()

	first, _, _ := newFundedSubscription(t, v, 1000, 600, 3000)
	second, _, _ := newFundedSubscription(t, v, 1000, 600, 3000)

	clk.now = 1700
	if _, err := v.BatchCharge(ctx, admin, []uint64{first, second}); err != nil {
		t.Fatalf("batch charge: %v", err)
	}

	// Every item in the batch is anchored at the same ledger time.
	if got := mustGet(t, v, first).LastPaymentTimestamp; got != 1700 {
		t.Errorf("first anchor: got %d, want 1700", got)
	}
	if got := mustGet(t, v, second).LastPaymentTimestamp; got != 1700 {
		t.Errorf("second anchor: got %d, want 1700", got)
	}
}

func TestBatchChargeEmpty(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, admin := newTestVault(t, clk, 0)

	results, err := v.BatchCharge(context.Background(), admin, nil)
	if err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results: got %d, want 0", len(results))
	}
}

func TestBatchChargeUnauthorized(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 0)

	subID, _, _ := newFundedSubscription(t, v, 1000, 600, 3000)

	clk.now = 1600
	results, err := v.BatchCharge(context.Background(), id.NewAccountID(), []uint64{subID})
	if !errors.Is(err, vault.ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
	if results != nil {
		t.Errorf("results: got %v, want nil", results)
	}

	// Nothing was charged.
	if got := mustGet(t, v, subID).PrepaidBalance; got != 3000 {
		t.Errorf("balance: got %d, want 3000", got)
	}
}
