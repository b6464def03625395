package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Vault store (SQLite).
var Migrations = migrate.NewGroup("vault")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_vault_config",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_config (
    id                   INTEGER PRIMARY KEY CHECK (id = 1),
    token                TEXT NOT NULL DEFAULT '',
    token_decimals       INTEGER NOT NULL DEFAULT 0,
    admin                TEXT NOT NULL DEFAULT '',
    min_topup            INTEGER NOT NULL DEFAULT 0,
    grace_period_seconds INTEGER NOT NULL DEFAULT 0,
    created_at           TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at           TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_config`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vault_subscriptions",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_subscriptions (
    id                     INTEGER PRIMARY KEY,
    subscriber             TEXT NOT NULL DEFAULT '',
    merchant               TEXT NOT NULL DEFAULT '',
    amount                 INTEGER NOT NULL DEFAULT 0,
    interval_seconds       INTEGER NOT NULL DEFAULT 0,
    last_payment_timestamp INTEGER NOT NULL DEFAULT 0,
    status                 TEXT NOT NULL DEFAULT 'active',
    prepaid_balance        INTEGER NOT NULL DEFAULT 0,
    usage_enabled          INTEGER NOT NULL DEFAULT 0,
    created_at             TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at             TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_vault_subs_merchant ON vault_subscriptions (merchant, id);
CREATE INDEX IF NOT EXISTS idx_vault_subs_due ON vault_subscriptions (status, last_payment_timestamp);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_subscriptions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vault_merchant_balances",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_merchant_balances (
    merchant   TEXT PRIMARY KEY,
    accrued    INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_merchant_balances`)
				return err
			},
		},
	)
}
