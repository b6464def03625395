package vault_test

import (
	"context"
	"errors"
	"math"
	"testing"

	vault "github.com/xraph/vault"
)

func TestEstimateTopUp(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 0)
	ctx := context.Background()

	subID, subscriber, _ := newFundedSubscription(t, v, 1000, 600, 0)

	tests := []struct {
		name      string
		balance   int64
		intervals uint64
		want      int64
	}{
		{"zero intervals", 0, 0, 0},
		{"empty balance", 0, 3, 3000},
		{"partial balance", 1500, 3, 1500},
		{"exact balance", 3000, 3, 0},
		{"surplus balance floors at zero", 5000, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset the balance by rebuilding the delta through a deposit.
			sub := mustGet(t, v, subID)
			if delta := tt.balance - sub.PrepaidBalance; delta > 0 {
				if err := v.Deposit(ctx, subID, subscriber, delta); err != nil {
					t.Fatalf("deposit: %v", err)
				}
			}

			got, err := v.EstimateTopUp(ctx, subID, tt.intervals)
			if err != nil {
				t.Fatalf("estimate: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimateTopUpUnknownSubscription(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 0)

	_, err := v.EstimateTopUp(context.Background(), 9999, 3)
	if !errors.Is(err, vault.ErrSubscriptionNotFound) {
		t.Fatalf("got %v, want ErrSubscriptionNotFound", err)
	}
}

func TestEstimateTopUpOverflow(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 0)
	ctx := context.Background()

	subID, _, _ := newFundedSubscription(t, v, math.MaxInt64/2, 600, 0)

	if _, err := v.EstimateTopUp(ctx, subID, 3); !errors.Is(err, vault.ErrOverflow) {
		t.Errorf("product overflow: got %v, want ErrOverflow", err)
	}
	if _, err := v.EstimateTopUp(ctx, subID, math.MaxUint64); !errors.Is(err, vault.ErrOverflow) {
		t.Errorf("interval count out of range: got %v, want ErrOverflow", err)
	}
}

func TestEstimateTopUpIsReadOnly(t *testing.T) {
	clk := &fakeClock{now: 1000}
	v, _ := newTestVault(t, clk, 0)
	ctx := context.Background()

	subID, _, _ := newFundedSubscription(t, v, 1000, 600, 2500)

	if _, err := v.EstimateTopUp(ctx, subID, 5); err != nil {
		t.Fatalf("estimate: %v", err)
	}

	sub := mustGet(t, v, subID)
	if sub.PrepaidBalance != 2500 {
		t.Errorf("balance mutated: got %d, want 2500", sub.PrepaidBalance)
	}
	if sub.LastPaymentTimestamp != 1000 {
		t.Errorf("anchor mutated: got %d, want 1000", sub.LastPaymentTimestamp)
	}
}
