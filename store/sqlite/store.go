// Package sqlite provides a SQLite-backed store implementation using the
// Grove ORM, suited to embedded and single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/config"
	"github.com/xraph/vault/id"
	vaultstore "github.com/xraph/vault/store"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB

	// Serializes sequence-key assignment for new subscriptions.
	idMu sync.Mutex
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("vault/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("vault/sqlite: migration failed: %w", err)
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

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) (uint64, error) {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	var maxID int64
	err := s.sdb.NewRaw(`SELECT COALESCE(MAX(id), 0) FROM vault_subscriptions`).Scan(ctx, &maxID)
	if err != nil {
		return 0, err
	}
	sub.ID = uint64(maxID) + 1

	m := toSubscriptionModel(sub)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return 0, err
	}
	return sub.ID, nil
}

func (s *Store) GetSubscription(ctx context.Context, subID uint64) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", int64(subID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vault.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return fromSubscriptionModel(m)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return vault.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) ListSubscriptionsByMerchant(ctx context.Context, merchant id.AccountID, offset, limit int) ([]*subscription.Subscription, error) {
	var models []subscriptionModel
	q := s.sdb.NewSelect(&models).Where("merchant = ?", merchant.String())

	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	var total int64
	err := s.sdb.NewRaw(`
		SELECT COUNT(*) FROM vault_subscriptions WHERE merchant = ?
	`, merchant.String()).Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListDueSubscriptions(ctx context.Context, nowTS uint64, limit int) ([]uint64, error) {
	var models []subscriptionModel
	// last + interval <= now, rewritten to avoid integer overflow in SQL.
	q := s.sdb.NewSelect(&models).
		Where("status IN (?, ?)", string(subscription.StatusActive), string(subscription.StatusGracePeriod)).
		Where("last_payment_timestamp <= ? - interval_seconds", int64(nowTS)).
		OrderExpr("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]uint64, len(models))
	for i := range models {
		result[i] = uint64(models[i].ID)
	}
	return result, nil
}

// ==================== Config Store ====================

func (s *Store) InitConfig(ctx context.Context, cfg *config.Config) error {
	var count int64
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM vault_config`).Scan(ctx, &count)
	if err != nil {
		return err
	}
	if count > 0 {
		return vault.ErrAlreadyInitialized
	}

	m := toConfigModel(cfg)
	_, err = s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetConfig(ctx context.Context) (*config.Config, error) {
	m := new(configModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", 1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vault.ErrNotInitialized
		}
		return nil, err
	}
	return fromConfigModel(m)
}

func (s *Store) UpdateConfig(ctx context.Context, cfg *config.Config) error {
	m := toConfigModel(cfg)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return vault.ErrNotInitialized
	}
	return nil
}

// ==================== Merchant settlement ====================

// ApplyCharge persists the charged record and credits the merchant. A
// failed credit restores the previous subscription row before the error
// is returned.
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
	m := &merchantBalanceModel{
		Merchant:  merchant.String(),
		Accrued:   amount,
		CreatedAt: t,
		UpdatedAt: t,
	}
	_, err := s.sdb.NewInsert(m).
		OnConflict("(merchant) DO UPDATE SET accrued = accrued + excluded.accrued, updated_at = excluded.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) DebitMerchant(ctx context.Context, merchant id.AccountID, amount int64) error {
	res, err := s.sdb.NewUpdate((*merchantBalanceModel)(nil)).
		Set("accrued = accrued - ?", amount).
		Set("updated_at = ?", now()).
		Where("merchant = ?", merchant.String()).
		Where("accrued >= ?", amount).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return vault.ErrInsufficientBalance
	}
	return nil
}

func (s *Store) MerchantBalance(ctx context.Context, merchant id.AccountID) (int64, error) {
	m := new(merchantBalanceModel)
	err := s.sdb.NewSelect(m).
		Where("merchant = ?", merchant.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, err
	}
	return m.Accrued, nil
}

// ==================== Models ====================

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

type merchantBalanceModel struct {
	grove.BaseModel `grove:"table:vault_merchant_balances"`

	Merchant  string    `grove:"merchant,pk"`
	Accrued   int64     `grove:"accrued"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
