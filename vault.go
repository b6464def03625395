package vault

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/store"
)

// Vault is the recurring-billing settlement engine.
type Vault struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   Clock
	locks   *keyedMutex

	// Background workers
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Configuration
	autoChargeInterval time.Duration
	autoChargeBatch    int
}

// New creates a new Vault instance.
func New(s store.Store, opts ...Option) *Vault {
	v := &Vault{
		store:           s,
		plugins:         plugin.NewRegistry(),
		logger:          slog.Default(),
		clock:           SystemClock{},
		locks:           newKeyedMutex(),
		stopChan:        make(chan struct{}),
		autoChargeBatch: 100,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Option configures a Vault instance.
type Option func(*Vault)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
		v.plugins.WithLogger(logger)
	}
}

// WithClock sets the ledger clock. Tests inject a fake clock here; the
// default reads the system wall clock in whole seconds.
func WithClock(c Clock) Option {
	return func(v *Vault) {
		v.clock = c
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(v *Vault) {
		_ = v.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithAutoCharge enables the background charge worker: every interval it
// lists up to batchSize due subscriptions and charges them with per-item
// isolation. Disabled by default.
func WithAutoCharge(batchSize int, interval time.Duration) Option {
	return func(v *Vault) {
		v.autoChargeBatch = batchSize
		v.autoChargeInterval = interval
	}
}

// Start migrates the store and begins background workers.
func (v *Vault) Start(ctx context.Context) error {
	if err := v.store.Migrate(ctx); err != nil {
		return err
	}

	// Initialize plugins
	v.plugins.EmitInit(ctx, v)

	if v.autoChargeInterval > 0 {
		v.wg.Add(1)
		go v.autoChargeWorker(ctx)
	}

	v.logger.Info("vault started",
		"auto_charge_interval", v.autoChargeInterval,
		"auto_charge_batch", v.autoChargeBatch,
	)

	return nil
}

// Stop shuts down the Vault.
func (v *Vault) Stop() error {
	v.stopOnce.Do(func() { close(v.stopChan) })
	v.wg.Wait()

	ctx := context.Background()
	v.plugins.EmitShutdown(ctx)

	return v.store.Close()
}
