package memory

import (
	"context"
	"errors"
	"math"
	"testing"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/subscription"
)

func TestCreditMerchantOverflow(t *testing.T) {
	s := New()
	ctx := context.Background()
	merchant := id.NewAccountID()

	if err := s.CreditMerchant(ctx, merchant, math.MaxInt64); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := s.CreditMerchant(ctx, merchant, 1); !errors.Is(err, vault.ErrOverflow) {
		t.Fatalf("overflowing credit: got %v, want ErrOverflow", err)
	}

	accrued, err := s.MerchantBalance(ctx, merchant)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if accrued != math.MaxInt64 {
		t.Errorf("accrued after rejected credit: got %d, want %d", accrued, int64(math.MaxInt64))
	}
}

func TestApplyChargeOverflowLeavesRecord(t *testing.T) {
	s := New()
	ctx := context.Background()

	sub := &subscription.Subscription{
		Subscriber:           id.NewAccountID(),
		Merchant:             id.NewAccountID(),
		Amount:               1000,
		IntervalSeconds:      600,
		LastPaymentTimestamp: 1000,
		PrepaidBalance:       3000,
		Status:               subscription.StatusActive,
	}
	subID, err := s.CreateSubscription(ctx, sub)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreditMerchant(ctx, sub.Merchant, math.MaxInt64); err != nil {
		t.Fatalf("credit: %v", err)
	}

	charged := *sub
	charged.PrepaidBalance = 2000
	charged.LastPaymentTimestamp = 1600
	if err := s.ApplyCharge(ctx, &charged, 1000); !errors.Is(err, vault.ErrOverflow) {
		t.Fatalf("overflowing settlement: got %v, want ErrOverflow", err)
	}

	got, err := s.GetSubscription(ctx, subID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PrepaidBalance != 3000 || got.LastPaymentTimestamp != 1000 {
		t.Errorf("record mutated by rejected settlement: balance %d anchor %d",
			got.PrepaidBalance, got.LastPaymentTimestamp)
	}
}
