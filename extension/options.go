package extension

import (
	"time"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/store"
)

// Option configures the Vault Forge extension.
type Option func(*Extension)

// WithStore sets the store for the vault engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithVaultOption passes a vault.Option through to the underlying engine.
func WithVaultOption(opt vault.Option) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, opt)
	}
}

// WithPlugin registers a vault plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, vault.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for vault routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithAutoChargeBatchSize sets the maximum number of due subscriptions
// collected per auto-charge sweep.
func WithAutoChargeBatchSize(size int) Option {
	return func(e *Extension) { e.config.AutoChargeBatchSize = size }
}

// WithAutoChargeInterval sets how frequently the auto-charge worker sweeps
// for due subscriptions. Zero disables the worker.
func WithAutoChargeInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.AutoChargeInterval = d }
}

// WithGroveDatabase sets the name of the grove.DB to resolve from the DI container.
// The extension will auto-construct the appropriate store backend (postgres/sqlite/mongo)
// based on the grove driver type. Pass an empty string to use the default (unnamed) grove.DB.
func WithGroveDatabase(name string) Option {
	return func(e *Extension) {
		e.config.GroveDatabase = name
		e.useGrove = true
	}
}
