package store

import (
	"context"

	"github.com/xraph/vault/config"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/subscription"
)

// Store is the unified storage interface for all Vault entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Subscription methods
	CreateSubscription(ctx context.Context, s *subscription.Subscription) (uint64, error)
	GetSubscription(ctx context.Context, subID uint64) (*subscription.Subscription, error)
	UpdateSubscription(ctx context.Context, s *subscription.Subscription) error
	ListSubscriptionsByMerchant(ctx context.Context, merchant id.AccountID, offset, limit int) ([]*subscription.Subscription, error)
	CountSubscriptionsByMerchant(ctx context.Context, merchant id.AccountID) (int64, error)
	ListDueSubscriptions(ctx context.Context, now uint64, limit int) ([]uint64, error)

	// Config methods
	InitConfig(ctx context.Context, cfg *config.Config) error
	GetConfig(ctx context.Context) (*config.Config, error)
	UpdateConfig(ctx context.Context, cfg *config.Config) error

	// Merchant settlement methods. ApplyCharge persists a charged
	// subscription record and credits its merchant by amount as one
	// settlement operation: a failure must leave neither side applied.
	ApplyCharge(ctx context.Context, s *subscription.Subscription, amount int64) error
	CreditMerchant(ctx context.Context, merchant id.AccountID, amount int64) error
	DebitMerchant(ctx context.Context, merchant id.AccountID, amount int64) error
	MerchantBalance(ctx context.Context, merchant id.AccountID) (int64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
