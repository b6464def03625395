package vault_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/config"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/subscription"
)

func TestChargeLifecycle(t *testing.T) {
	const (
		amount   = int64(1000)
		interval = uint64(2_592_000) // 30 days
	)

	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 0)
	ctx := context.Background()

	subID, subscriber, merchant := newFundedSubscription(t, v, amount, interval, 6*amount)

	// Six fully funded intervals charge cleanly back to back.
	for i := 1; i <= 6; i++ {
		clk.now = 1000 + uint64(i)*interval
		if err := v.Charge(ctx, subID); err != nil {
			t.Fatalf("charge %d: %v", i, err)
		}

		sub := mustGet(t, v, subID)
		if sub.LastPaymentTimestamp != clk.now {
			t.Fatalf("charge %d: last payment %d, want %d", i, sub.LastPaymentTimestamp, clk.now)
		}
		if want := (6 - int64(i)) * amount; sub.PrepaidBalance != want {
			t.Fatalf("charge %d: balance %d, want %d", i, sub.PrepaidBalance, want)
		}
	}

	// Balance conservation: everything deposited is now on the merchant side.
	merchBal, err := v.MerchantBalance(ctx, merchant)
	if err != nil {
		t.Fatal(err)
	}
	if merchBal != 6*amount {
		t.Errorf("merchant accrued: got %d, want %d", merchBal, 6*amount)
	}
	if got := mustGet(t, v, subID).PrepaidBalance; got != 0 {
		t.Errorf("subscriber balance: got %d, want 0", got)
	}

	// The seventh interval is due but unfunded.
	clk.now += interval
	if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrInsufficientBalance) {
		t.Fatalf("unfunded charge: got %v, want ErrInsufficientBalance", err)
	}
	_ = subscriber
}

func TestChargeIntervalBoundary(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 0)
	ctx := context.Background()

	subID, _, _ := newFundedSubscription(t, v, 1000, 600, 5000)

	// One second before the boundary the charge is premature.
	clk.now = 1599
	if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrIntervalNotElapsed) {
		t.Fatalf("early charge: got %v, want ErrIntervalNotElapsed", err)
	}

	// Exactly at last + interval is the earliest legal moment.
	clk.now = 1600
	if err := v.Charge(ctx, subID); err != nil {
		t.Fatalf("boundary charge: %v", err)
	}

	// No double charge at the same ledger time: the window slid forward.
	if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrIntervalNotElapsed) {
		t.Fatalf("repeat charge: got %v, want ErrIntervalNotElapsed", err)
	}
}

func TestChargeSlidingWindow(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 0)
	ctx := context.Background()

	subID, _, _ := newFundedSubscription(t, v, 1000, 600, 5000)

	// A late charge anchors the next window at the charge time, not at the
	// scheduled time: charging at 1900 makes the next charge due at 2500.
	clk.now = 1900
	if err := v.Charge(ctx, subID); err != nil {
		t.Fatalf("late charge: %v", err)
	}

	clk.now = 2200 // 1600 + 600 would be due under fixed scheduling
	if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrIntervalNotElapsed) {
		t.Fatalf("got %v, want ErrIntervalNotElapsed", err)
	}

	clk.now = 2500
	if err := v.Charge(ctx, subID); err != nil {
		t.Fatalf("next window charge: %v", err)
	}
}

func TestChargeUnknownSubscription(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 0)

	err := v.Charge(context.Background(), 9999)
	if !errors.Is(err, vault.ErrSubscriptionNotFound) {
		t.Fatalf("got %v, want ErrSubscriptionNotFound", err)
	}
}

func TestChargeNonChargeableStatuses(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 0)
	ctx := context.Background()

	t.Run("Paused", func(t *testing.T) {
		subID, subscriber, _ := newFundedSubscription(t, v, 1000, 600, 5000)
		if err := v.Pause(ctx, subID, subscriber); err != nil {
			t.Fatal(err)
		}
		clk.now = 1600
		if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrNotActive) {
			t.Errorf("got %v, want ErrNotActive", err)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		subID, subscriber, _ := newFundedSubscription(t, v, 1000, 600, 5000)
		if err := v.Cancel(ctx, subID, subscriber); err != nil {
			t.Fatal(err)
		}
		clk.now = 1600
		if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrNotActive) {
			t.Errorf("got %v, want ErrNotActive", err)
		}
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		clk.now = 1000
		subID, _, _ := newFundedSubscription(t, v, 1000, 600, 0)
		clk.now = 1600
		if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrInsufficientBalance) {
			t.Fatal(err)
		}
		// Parked records reject further attempts outright, even funded ones.
		if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrNotActive) {
			t.Errorf("got %v, want ErrNotActive", err)
		}
	})
}

func TestChargeOverflowGuard(t *testing.T) {
	clk := &fakeClock{now: math.MaxUint64 - 5}
	v, _ := newTestVault(t, clk, 0)
	ctx := context.Background()

	// last + interval exceeds the timestamp range.
	subID, _, _ := newFundedSubscription(t, v, 1000, 10, 5000)
	if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrOverflow) {
		t.Fatalf("got %v, want ErrOverflow", err)
	}

	// The failed attempt must not have mutated the record.
	sub := mustGet(t, v, subID)
	if sub.PrepaidBalance != 5000 || sub.Status != subscription.StatusActive {
		t.Errorf("record mutated: balance %d, status %s", sub.PrepaidBalance, sub.Status)
	}
}

func TestGracePeriodFlow(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 100)
	ctx := context.Background()

	subID, subscriber, _ := newFundedSubscription(t, v, 1000, 600, 500)

	// Underfunded at the due time: enters grace, charge still fails.
	clk.now = 1600
	if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrInsufficientBalance) {
		t.Fatalf("first attempt: got %v, want ErrInsufficientBalance", err)
	}
	if got := mustGet(t, v, subID).Status; got != subscription.StatusGracePeriod {
		t.Fatalf("status: got %s, want grace_period", got)
	}

	// Still inside the window: stays in grace, still fails.
	clk.now = 1650
	if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrInsufficientBalance) {
		t.Fatalf("second attempt: got %v, want ErrInsufficientBalance", err)
	}
	if got := mustGet(t, v, subID).Status; got != subscription.StatusGracePeriod {
		t.Fatalf("status: got %s, want grace_period", got)
	}

	// Funded inside the window: charge succeeds and the record recovers.
	if err := v.Deposit(ctx, subID, subscriber, 1000); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	clk.now = 1680
	if err := v.Charge(ctx, subID); err != nil {
		t.Fatalf("funded attempt: %v", err)
	}
	sub := mustGet(t, v, subID)
	if sub.Status != subscription.StatusActive {
		t.Errorf("status after recovery: got %s, want active", sub.Status)
	}
	if sub.LastPaymentTimestamp != 1680 {
		t.Errorf("last payment: got %d, want 1680", sub.LastPaymentTimestamp)
	}
	if sub.PrepaidBalance != 500 {
		t.Errorf("balance: got %d, want 500", sub.PrepaidBalance)
	}
}

func TestGracePeriodExpiry(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 100)
	ctx := context.Background()

	subID, _, _ := newFundedSubscription(t, v, 1000, 600, 500)

	clk.now = 1600
	if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrInsufficientBalance) {
		t.Fatalf("enter grace: got %v, want ErrInsufficientBalance", err)
	}

	// The window closes at next_allowed + grace = 1700; at 1750 the record
	// is parked in insufficient balance.
	clk.now = 1750
	if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrInsufficientBalance) {
		t.Fatalf("expired attempt: got %v, want ErrInsufficientBalance", err)
	}
	if got := mustGet(t, v, subID).Status; got != subscription.StatusInsufficientBalance {
		t.Errorf("status: got %s, want insufficient_balance", got)
	}
}

func TestGracePeriodBoundary(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 100)
	ctx := context.Background()

	subID, _, _ := newFundedSubscription(t, v, 1000, 600, 500)

	// Exactly at the expiry boundary the window is already closed: grace
	// covers [next_allowed, next_allowed+grace).
	clk.now = 1700
	if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}
	if got := mustGet(t, v, subID).Status; got != subscription.StatusInsufficientBalance {
		t.Errorf("status: got %s, want insufficient_balance", got)
	}
}

func TestChargeAt(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, admin := newTestVault(t, clk, 0)
	ctx := context.Background()

	subID, _, _ := newFundedSubscription(t, v, 1000, 600, 5000)

	// Admin-only.
	if err := v.ChargeAt(ctx, id.NewAccountID(), subID, 1600); !errors.Is(err, vault.ErrUnauthorized) {
		t.Fatalf("stranger: got %v, want ErrUnauthorized", err)
	}

	// The explicit time is the anchor, regardless of the clock.
	if err := v.ChargeAt(ctx, admin, subID, 1600); err != nil {
		t.Fatalf("charge at: %v", err)
	}
	if got := mustGet(t, v, subID).LastPaymentTimestamp; got != 1600 {
		t.Errorf("last payment: got %d, want 1600", got)
	}
}

func TestConcurrentChargesSingleWinner(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 0)
	ctx := context.Background()

	subID, _, _ := newFundedSubscription(t, v, 1000, 600, 5000)
	clk.now = 1600

	// Racing charges at the same ledger time: exactly one may win; the
	// rest must see the window already slid forward.
	const workers = 10
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- v.Charge(ctx, subID)
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, vault.ErrIntervalNotElapsed):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("winners: got %d, want 1", succeeded)
	}
	if got := mustGet(t, v, subID).PrepaidBalance; got != 4000 {
		t.Errorf("balance: got %d, want 4000", got)
	}
}

// failingSettlementStore simulates a backend whose settlement write is
// unavailable while every other operation keeps working.
type failingSettlementStore struct {
	store.Store
	fail bool
}

func (f *failingSettlementStore) ApplyCharge(ctx context.Context, sub *subscription.Subscription, amount int64) error {
	if f.fail {
		return errors.New("settlement backend unavailable")
	}
	return f.Store.ApplyCharge(ctx, sub, amount)
}

func TestChargeSettlementFailureLeavesNoPartialState(t *testing.T) {
	clk := &fakeClock{now: 1000}
	st := &failingSettlementStore{Store: memory.New()}
	v := vault.New(st, vault.WithClock(clk))
	ctx := context.Background()

	cfg := &config.Config{
		Token:    id.NewAccountID(),
		Admin:    id.NewAccountID(),
		MinTopUp: 100,
	}
	if err := v.Init(ctx, cfg); err != nil {
		t.Fatalf("init: %v", err)
	}
	subID, _, merchant := newFundedSubscription(t, v, 1000, 600, 3000)

	clk.now = 1600
	st.fail = true
	if err := v.Charge(ctx, subID); err == nil {
		t.Fatal("charge succeeded against a failing settlement backend")
	}

	// The debit and the anchor must not survive a failed settlement.
	sub := mustGet(t, v, subID)
	if sub.PrepaidBalance != 3000 {
		t.Errorf("balance after failed settlement: got %d, want 3000", sub.PrepaidBalance)
	}
	if sub.LastPaymentTimestamp != 1000 {
		t.Errorf("anchor after failed settlement: got %d, want 1000", sub.LastPaymentTimestamp)
	}
	accrued, err := v.MerchantBalance(ctx, merchant)
	if err != nil {
		t.Fatalf("merchant balance: %v", err)
	}
	if accrued != 0 {
		t.Errorf("merchant accrued after failed settlement: got %d, want 0", accrued)
	}

	// The interval window did not slide, so a retry collects normally.
	st.fail = false
	if err := v.Charge(ctx, subID); err != nil {
		t.Fatalf("retry after settlement recovery: %v", err)
	}
	sub = mustGet(t, v, subID)
	if sub.PrepaidBalance != 2000 {
		t.Errorf("balance after retry: got %d, want 2000", sub.PrepaidBalance)
	}
	if sub.LastPaymentTimestamp != 1600 {
		t.Errorf("anchor after retry: got %d, want 1600", sub.LastPaymentTimestamp)
	}
	accrued, err = v.MerchantBalance(ctx, merchant)
	if err != nil {
		t.Fatalf("merchant balance: %v", err)
	}
	if accrued != 1000 {
		t.Errorf("merchant accrued after retry: got %d, want 1000", accrued)
	}
}

func TestChargeUninitializedVault(t *testing.T) {
	// An uninitialized vault has no grace window configured; the charge
	// engine treats it as zero rather than failing.
	clk := &fakeClock{now: 1000}
	v := vault.New(memory.New(), vault.WithClock(clk))
	ctx := context.Background()

	subID, err := v.CreateSubscription(ctx, id.NewAccountID(), id.NewAccountID(), 1000, 600, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clk.now = 1600
	if err := v.Charge(ctx, subID); !errors.Is(err, vault.ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}
	if got := mustGet(t, v, subID).Status; got != subscription.StatusInsufficientBalance {
		t.Errorf("status: got %s, want insufficient_balance", got)
	}
}
