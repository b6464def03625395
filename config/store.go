package config

import "context"

// Store is the persistence interface for the vault configuration.
//
// Init persists the configuration exactly once; a second call must fail so
// the admin identity cannot be silently replaced. Get returns the stored
// record; stores report a not-found error (mapped by the root package)
// when Init has not run.
type Store interface {
	Init(ctx context.Context, cfg *Config) error
	Get(ctx context.Context) (*Config, error)
	Update(ctx context.Context, cfg *Config) error
}
