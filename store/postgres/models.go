package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/vault/config"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

// ==================== Subscription models ====================

type subscriptionModel struct {
	grove.BaseModel `grove:"table:vault_subscriptions"`

	ID                   int64     `grove:"id,pk"`
	Subscriber           string    `grove:"subscriber"`
	Merchant             string    `grove:"merchant"`
	Amount               int64     `grove:"amount"`
	IntervalSeconds      int64     `grove:"interval_seconds"`
	LastPaymentTimestamp int64     `grove:"last_payment_timestamp"`
	Status               string    `grove:"status"`
	PrepaidBalance       int64     `grove:"prepaid_balance"`
	UsageEnabled         bool      `grove:"usage_enabled"`
	CreatedAt            time.Time `grove:"created_at"`
	UpdatedAt            time.Time `grove:"updated_at"`
}

func toSubscriptionModel(sub *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		ID:                   int64(sub.ID),
		Subscriber:           sub.Subscriber.String(),
		Merchant:             sub.Merchant.String(),
		Amount:               sub.Amount,
		IntervalSeconds:      int64(sub.IntervalSeconds),
		LastPaymentTimestamp: int64(sub.LastPaymentTimestamp),
		Status:               string(sub.Status),
		PrepaidBalance:       sub.PrepaidBalance,
		UsageEnabled:         sub.UsageEnabled,
		CreatedAt:            sub.CreatedAt,
		UpdatedAt:            sub.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	subscriber, err := id.ParseAccountID(m.Subscriber)
	if err != nil {
		return nil, err
	}
	merchant, err := id.ParseAccountID(m.Merchant)
	if err != nil {
		return nil, err
	}

	return &subscription.Subscription{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                   uint64(m.ID),
		Subscriber:           subscriber,
		Merchant:             merchant,
		Amount:               m.Amount,
		IntervalSeconds:      uint64(m.IntervalSeconds),
		LastPaymentTimestamp: uint64(m.LastPaymentTimestamp),
		Status:               subscription.Status(m.Status),
		PrepaidBalance:       m.PrepaidBalance,
		UsageEnabled:         m.UsageEnabled,
	}, nil
}

// ==================== Config models ====================

type configModel struct {
	grove.BaseModel `grove:"table:vault_config"`

	ID                 int64     `grove:"id,pk"`
	Token              string    `grove:"token"`
	TokenDecimals      int64     `grove:"token_decimals"`
	Admin              string    `grove:"admin"`
	MinTopUp           int64     `grove:"min_topup"`
	GracePeriodSeconds int64     `grove:"grace_period_seconds"`
	CreatedAt          time.Time `grove:"created_at"`
	UpdatedAt          time.Time `grove:"updated_at"`
}

func toConfigModel(cfg *config.Config) *configModel {
	return &configModel{
		ID:                 1,
		Token:              cfg.Token.String(),
		TokenDecimals:      int64(cfg.TokenDecimals),
		Admin:              cfg.Admin.String(),
		MinTopUp:           cfg.MinTopUp,
		GracePeriodSeconds: int64(cfg.GracePeriodSeconds),
		CreatedAt:          cfg.CreatedAt,
		UpdatedAt:          cfg.UpdatedAt,
	}
}

func fromConfigModel(m *configModel) (*config.Config, error) {
	token, err := id.ParseAccountID(m.Token)
	if err != nil {
		return nil, err
	}
	admin, err := id.ParseAccountID(m.Admin)
	if err != nil {
		return nil, err
	}

	return &config.Config{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Token:              token,
		TokenDecimals:      uint32(m.TokenDecimals),
		Admin:              admin,
		MinTopUp:           m.MinTopUp,
		GracePeriodSeconds: uint64(m.GracePeriodSeconds),
	}, nil
}

// ==================== Merchant balance models ====================

type merchantBalanceModel struct {
	grove.BaseModel `grove:"table:vault_merchant_balances"`

	Merchant  string    `grove:"merchant,pk"`
	Accrued   int64     `grove:"accrued"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}
