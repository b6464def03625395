// Package postgres provides a PostgreSQL-backed store implementation using
// the Grove ORM, suited to multi-node production deployments.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/config"
	"github.com/xraph/vault/id"
	vaultstore "github.com/xraph/vault/store"
	"github.com/xraph/vault/subscription"
)

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("vault/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("vault/postgres: migration failed: %w", err)
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
	// Sequence keys are assigned in SQL so concurrent creators on separate
	// nodes cannot collide without one insert failing on the primary key.
	var nextID int64
	err := s.pg.NewRaw(`SELECT COALESCE(MAX(id), 0) + 1 FROM vault_subscriptions`).Scan(ctx, &nextID)
	if err != nil {
		return 0, err
	}
	sub.ID = uint64(nextID)

	m := toSubscriptionModel(sub)
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		return 0, err
	}
	return sub.ID, nil
}

func (s *Store) GetSubscription(ctx context.Context, subID uint64) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.pg.NewSelect(m).
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
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
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
	q := s.pg.NewSelect(&models).Where("merchant = ?", merchant.String())

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
	err := s.pg.NewRaw(`
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
	q := s.pg.NewSelect(&models).
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
	err := s.pg.NewRaw(`SELECT COUNT(*) FROM vault_config`).Scan(ctx, &count)
	if err != nil {
		return err
	}
	if count > 0 {
		return vault.ErrAlreadyInitialized
	}

	m := toConfigModel(cfg)
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetConfig(ctx context.Context) (*config.Config, error) {
	m := new(configModel)
	err := s.pg.NewSelect(m).
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
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
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

// ApplyCharge persists the charged record and credits the merchant in a
// single statement, so a failure applies neither side.
func (s *Store) ApplyCharge(ctx context.Context, sub *subscription.Subscription, amount int64) error {
	t := now()
	var accrued int64
	err := s.pg.NewRaw(`
		WITH charged AS (
			UPDATE vault_subscriptions
			SET prepaid_balance = ?, last_payment_timestamp = ?, status = ?, updated_at = ?
			WHERE id = ?
			RETURNING merchant
		)
		INSERT INTO vault_merchant_balances (merchant, accrued, created_at, updated_at)
		SELECT merchant, ?, ?, ? FROM charged
		ON CONFLICT (merchant) DO UPDATE
		SET accrued = vault_merchant_balances.accrued + excluded.accrued,
		    updated_at = excluded.updated_at
		RETURNING accrued
	`, sub.PrepaidBalance, int64(sub.LastPaymentTimestamp), string(sub.Status), t,
		int64(sub.ID), amount, t, t).Scan(ctx, &accrued)
	if err != nil {
		if isNoRows(err) {
			return vault.ErrSubscriptionNotFound
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
	_, err := s.pg.NewInsert(m).
		OnConflict("(merchant) DO UPDATE SET accrued = vault_merchant_balances.accrued + excluded.accrued, updated_at = excluded.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) DebitMerchant(ctx context.Context, merchant id.AccountID, amount int64) error {
	res, err := s.pg.NewUpdate((*merchantBalanceModel)(nil)).
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
	err := s.pg.NewSelect(m).
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

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
