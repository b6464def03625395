// Package mongo provides a MongoDB-backed store implementation using the
// Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/config"
	"github.com/xraph/vault/id"
	vaultstore "github.com/xraph/vault/store"
	"github.com/xraph/vault/subscription"
)

// Collection name constants.
const (
	colSubscriptions    = "vault_subscriptions"
	colConfig           = "vault_config"
	colMerchantBalances = "vault_merchant_balances"
	colCounters         = "vault_counters"
)

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all vault collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("vault/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Subscription Store ====================

// nextSubscriptionID atomically allocates the next sequence key from the
// counters collection.
func (s *Store) nextSubscriptionID(ctx context.Context) (uint64, error) {
	var counter counterModel
	err := s.mdb.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": colSubscriptions},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("vault/mongo: allocate subscription id: %w", err)
	}
	return uint64(counter.Value), nil
}

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) (uint64, error) {
	subID, err := s.nextSubscriptionID(ctx)
	if err != nil {
		return 0, err
	}
	sub.ID = subID

	m := toSubscriptionModel(sub)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return 0, fmt.Errorf("vault/mongo: create subscription: %w", err)
	}
	return sub.ID, nil
}

func (s *Store) GetSubscription(ctx context.Context, subID uint64) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(subID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vault.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("vault/mongo: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vault/mongo: update subscription: %w", err)
	}
	if res.MatchedCount() == 0 {
		return vault.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) ListSubscriptionsByMerchant(ctx context.Context, merchant id.AccountID, offset, limit int) ([]*subscription.Subscription, error) {
	var models []subscriptionModel
	q := s.mdb.NewFind(&models).
		Filter(bson.M{"merchant": merchant.String()}).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if limit > 0 {
		q = q.Limit(int64(limit))
	}
	if offset > 0 {
		q = q.Skip(int64(offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vault/mongo: list subscriptions: %w", err)
	}

	result := make([]*subscription.Subscription, len(models))
	for i := range models {
		sub, err := fromSubscriptionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sub
	}
	return result, nil
}

func (s *Store) CountSubscriptionsByMerchant(ctx context.Context, merchant id.AccountID) (int64, error) {
	total, err := s.mdb.Collection(colSubscriptions).CountDocuments(ctx, bson.M{"merchant": merchant.String()})
	if err != nil {
		return 0, fmt.Errorf("vault/mongo: count subscriptions: %w", err)
	}
	return total, nil
}

func (s *Store) ListDueSubscriptions(ctx context.Context, nowTS uint64, limit int) ([]uint64, error) {
	var models []subscriptionModel
	// last + interval <= now, rewritten per document with $expr to avoid
	// overflow on the sum.
	q := s.mdb.NewFind(&models).
		Filter(bson.M{
			"status": bson.M{"$in": bson.A{
				string(subscription.StatusActive),
				string(subscription.StatusGracePeriod),
			}},
			"$expr": bson.M{"$lte": bson.A{
				"$last_payment_timestamp",
				bson.M{"$subtract": bson.A{int64(nowTS), "$interval_seconds"}},
			}},
		}).
		Sort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		q = q.Limit(int64(limit))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vault/mongo: list due subscriptions: %w", err)
	}

	result := make([]uint64, len(models))
	for i := range models {
		result[i] = uint64(models[i].ID)
	}
	return result, nil
}

// ==================== Config Store ====================

func (s *Store) InitConfig(ctx context.Context, cfg *config.Config) error {
	count, err := s.mdb.Collection(colConfig).CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("vault/mongo: check config: %w", err)
	}
	if count > 0 {
		return vault.ErrAlreadyInitialized
	}

	m := toConfigModel(cfg)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("vault/mongo: init config: %w", err)
	}
	return nil
}

func (s *Store) GetConfig(ctx context.Context) (*config.Config, error) {
	var m configModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(1)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vault.ErrNotInitialized
		}
		return nil, fmt.Errorf("vault/mongo: get config: %w", err)
	}
	return fromConfigModel(&m)
}

func (s *Store) UpdateConfig(ctx context.Context, cfg *config.Config) error {
	m := toConfigModel(cfg)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vault/mongo: update config: %w", err)
	}
	if res.MatchedCount() == 0 {
		return vault.ErrNotInitialized
	}
	return nil
}

// ==================== Merchant settlement ====================

// ApplyCharge persists the charged record and credits the merchant. A
// failed credit restores the previous subscription document before the
// error is returned.
func (s *Store) ApplyCharge(ctx context.Context, sub *subscription.Subscription, amount int64) error {
	prev, err := s.GetSubscription(ctx, sub.ID)
	if err != nil {
		return err
	}
	if err := s.UpdateSubscription(ctx, sub); err != nil {
		return err
	}
	if err := s.CreditMerchant(ctx, sub.Merchant, amount); err != nil {
		if rbErr := s.UpdateSubscription(ctx, prev); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}

func (s *Store) CreditMerchant(ctx context.Context, merchant id.AccountID, amount int64) error {
	t := now()
	_, err := s.mdb.Collection(colMerchantBalances).UpdateOne(ctx,
		bson.M{"_id": merchant.String()},
		bson.M{
			"$inc":         bson.M{"accrued": amount},
			"$set":         bson.M{"updated_at": t},
			"$setOnInsert": bson.M{"created_at": t},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("vault/mongo: credit merchant: %w", err)
	}
	return nil
}

func (s *Store) DebitMerchant(ctx context.Context, merchant id.AccountID, amount int64) error {
	res, err := s.mdb.Collection(colMerchantBalances).UpdateOne(ctx,
		bson.M{
			"_id":     merchant.String(),
			"accrued": bson.M{"$gte": amount},
		},
		bson.M{
			"$inc": bson.M{"accrued": -amount},
			"$set": bson.M{"updated_at": now()},
		},
	)
	if err != nil {
		return fmt.Errorf("vault/mongo: debit merchant: %w", err)
	}
	if res.MatchedCount == 0 {
		return vault.ErrInsufficientBalance
	}
	return nil
}

func (s *Store) MerchantBalance(ctx context.Context, merchant id.AccountID) (int64, error) {
	var m merchantBalanceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": merchant.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("vault/mongo: merchant balance: %w", err)
	}
	return m.Accrued, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks for the mongo-driver no-documents sentinel.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all vault collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSubscriptions: {
			{Keys: bson.D{{Key: "merchant", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "last_payment_timestamp", Value: 1}}},
			{Keys: bson.D{{Key: "subscriber", Value: 1}}},
		},
		colConfig:           {},
		colMerchantBalances: {},
	}
}
