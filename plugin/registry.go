package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onVaultInitialized     []OnVaultInitialized
	onSubscriptionCreated  []OnSubscriptionCreated
	onSubscriptionCanceled []OnSubscriptionCanceled
	onStatusChanged        []OnStatusChanged
	onSubscriptionCharged  []OnSubscriptionCharged
	onChargeFailed         []OnChargeFailed
	onBatchCompleted       []OnBatchCompleted
	onDeposit              []OnDeposit
	onWithdrawal           []OnWithdrawal
	onPayout               []OnPayout
	onAdminRotated         []OnAdminRotated
	onFundsRecovered       []OnFundsRecovered
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnVaultInitialized); ok {
		r.onVaultInitialized = append(r.onVaultInitialized, v)
	}
	if v, ok := p.(OnSubscriptionCreated); ok {
		r.onSubscriptionCreated = append(r.onSubscriptionCreated, v)
	}
	if v, ok := p.(OnSubscriptionCanceled); ok {
		r.onSubscriptionCanceled = append(r.onSubscriptionCanceled, v)
	}
	if v, ok := p.(OnStatusChanged); ok {
		r.onStatusChanged = append(r.onStatusChanged, v)
	}
	if v, ok := p.(OnSubscriptionCharged); ok {
		r.onSubscriptionCharged = append(r.onSubscriptionCharged, v)
	}
	if v, ok := p.(OnChargeFailed); ok {
		r.onChargeFailed = append(r.onChargeFailed, v)
	}
	if v, ok := p.(OnBatchCompleted); ok {
		r.onBatchCompleted = append(r.onBatchCompleted, v)
	}
	if v, ok := p.(OnDeposit); ok {
		r.onDeposit = append(r.onDeposit, v)
	}
	if v, ok := p.(OnWithdrawal); ok {
		r.onWithdrawal = append(r.onWithdrawal, v)
	}
	if v, ok := p.(OnPayout); ok {
		r.onPayout = append(r.onPayout, v)
	}
	if v, ok := p.(OnAdminRotated); ok {
		r.onAdminRotated = append(r.onAdminRotated, v)
	}
	if v, ok := p.(OnFundsRecovered); ok {
		r.onFundsRecovered = append(r.onFundsRecovered, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnVaultInitialized)(nil)).Elem(), "OnVaultInitialized")
	checkInterface(reflect.TypeOf((*OnSubscriptionCreated)(nil)).Elem(), "OnSubscriptionCreated")
	checkInterface(reflect.TypeOf((*OnSubscriptionCharged)(nil)).Elem(), "OnSubscriptionCharged")
	checkInterface(reflect.TypeOf((*OnChargeFailed)(nil)).Elem(), "OnChargeFailed")
	checkInterface(reflect.TypeOf((*OnStatusChanged)(nil)).Elem(), "OnStatusChanged")
	checkInterface(reflect.TypeOf((*OnBatchCompleted)(nil)).Elem(), "OnBatchCompleted")
	checkInterface(reflect.TypeOf((*OnDeposit)(nil)).Elem(), "OnDeposit")
	checkInterface(reflect.TypeOf((*OnPayout)(nil)).Elem(), "OnPayout")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, vault interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, vault)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitVaultInitialized emits a vault initialized event.
func (r *Registry) EmitVaultInitialized(ctx context.Context, cfg interface{}) {
	r.mu.RLock()
	plugins := r.onVaultInitialized
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnVaultInitialized(ctx, cfg)
		}); err != nil {
			r.logger.Warn("plugin OnVaultInitialized failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSubscriptionCreated emits a subscription created event.
func (r *Registry) EmitSubscriptionCreated(ctx context.Context, sub interface{}) {
	r.mu.RLock()
	plugins := r.onSubscriptionCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscriptionCreated(ctx, sub)
		}); err != nil {
			r.logger.Warn("plugin OnSubscriptionCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSubscriptionCanceled emits a subscription canceled event.
func (r *Registry) EmitSubscriptionCanceled(ctx context.Context, sub interface{}) {
	r.mu.RLock()
	plugins := r.onSubscriptionCanceled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscriptionCanceled(ctx, sub)
		}); err != nil {
			r.logger.Warn("plugin OnSubscriptionCanceled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStatusChanged emits a status changed event.
func (r *Registry) EmitStatusChanged(ctx context.Context, sub interface{}, from, to string) {
	r.mu.RLock()
	plugins := r.onStatusChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStatusChanged(ctx, sub, from, to)
		}); err != nil {
			r.logger.Warn("plugin OnStatusChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSubscriptionCharged emits a successful charge event.
func (r *Registry) EmitSubscriptionCharged(ctx context.Context, sub interface{}, amount int64, ledgerTime uint64) {
	r.mu.RLock()
	plugins := r.onSubscriptionCharged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscriptionCharged(ctx, sub, amount, ledgerTime)
		}); err != nil {
			r.logger.Warn("plugin OnSubscriptionCharged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitChargeFailed emits a failed charge event.
func (r *Registry) EmitChargeFailed(ctx context.Context, subID uint64, code uint32) {
	r.mu.RLock()
	plugins := r.onChargeFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnChargeFailed(ctx, subID, code)
		}); err != nil {
			r.logger.Warn("plugin OnChargeFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBatchCompleted emits a batch completed event.
func (r *Registry) EmitBatchCompleted(ctx context.Context, total, failed int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onBatchCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBatchCompleted(ctx, total, failed, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnBatchCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDeposit emits a deposit event.
func (r *Registry) EmitDeposit(ctx context.Context, sub interface{}, amount int64) {
	r.mu.RLock()
	plugins := r.onDeposit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDeposit(ctx, sub, amount)
		}); err != nil {
			r.logger.Warn("plugin OnDeposit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitWithdrawal emits a subscriber withdrawal event.
func (r *Registry) EmitWithdrawal(ctx context.Context, sub interface{}, amount int64) {
	r.mu.RLock()
	plugins := r.onWithdrawal
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawal(ctx, sub, amount)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawal failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPayout emits a merchant payout event.
func (r *Registry) EmitPayout(ctx context.Context, payout interface{}) {
	r.mu.RLock()
	plugins := r.onPayout
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPayout(ctx, payout)
		}); err != nil {
			r.logger.Warn("plugin OnPayout failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAdminRotated emits an admin rotation event.
func (r *Registry) EmitAdminRotated(ctx context.Context, previous, next string, ledgerTime uint64) {
	r.mu.RLock()
	plugins := r.onAdminRotated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAdminRotated(ctx, previous, next, ledgerTime)
		}); err != nil {
			r.logger.Warn("plugin OnAdminRotated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFundsRecovered emits a funds recovered event.
func (r *Registry) EmitFundsRecovered(ctx context.Context, event interface{}) {
	r.mu.RLock()
	plugins := r.onFundsRecovered
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFundsRecovered(ctx, event)
		}); err != nil {
			r.logger.Warn("plugin OnFundsRecovered failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout executes a plugin callback with a timeout to prevent hangs.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
