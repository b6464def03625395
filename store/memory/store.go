// Package memory provides an in-memory store implementation, useful for
// tests and embedded single-process deployments.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/vault"
	"github.com/xraph/vault/config"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

type Store struct {
	mu sync.RWMutex

	// Subscription storage, keyed by sequence number
	nextID        uint64
	subscriptions map[uint64]*subscription.Subscription

	// Merchant index, preserving insertion order
	byMerchant map[string][]uint64

	// Vault configuration singleton
	cfg *config.Config

	// Merchant settlement balances
	merchantBalances map[string]int64
}

func New() *Store {
	return &Store{
		nextID:           1,
		subscriptions:    make(map[uint64]*subscription.Subscription),
		byMerchant:       make(map[string][]uint64),
		merchantBalances: make(map[string]int64),
	}
}

// clone returns a copy so callers cannot mutate stored state without
// going through UpdateSubscription.
func clone(s *subscription.Subscription) *subscription.Subscription {
	c := *s
	return &c
}

// Subscription Store implementation

func (s *Store) CreateSubscription(_ context.Context, sub *subscription.Subscription) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub.ID = s.nextID
	s.nextID++

	s.subscriptions[sub.ID] = clone(sub)
	key := sub.Merchant.String()
	s.byMerchant[key] = append(s.byMerchant[key], sub.ID)
	return sub.ID, nil
}

func (s *Store) GetSubscription(_ context.Context, subID uint64) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.subscriptions[subID]; ok {
		return clone(sub), nil
	}
	return nil, vault.ErrSubscriptionNotFound
}

func (s *Store) UpdateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscriptions[sub.ID]; !ok {
		return vault.ErrSubscriptionNotFound
	}
	s.subscriptions[sub.ID] = clone(sub)
	return nil
}

func (s *Store) ListSubscriptionsByMerchant(_ context.Context, merchant id.AccountID, offset, limit int) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byMerchant[merchant.String()]

	start := offset
	if start < 0 {
		start = 0
	}
	if start > len(ids) {
		start = len(ids)
	}
	end := start + limit
	if limit <= 0 || end > len(ids) {
		end = len(ids)
	}

	result := make([]*subscription.Subscription, 0, end-start)
	for _, subID := range ids[start:end] {
		result = append(result, clone(s.subscriptions[subID]))
	}
	return result, nil
}

func (s *Store) CountSubscriptionsByMerchant(_ context.Context, merchant id.AccountID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byMerchant[merchant.String()])), nil
}

func (s *Store) ListDueSubscriptions(_ context.Context, now uint64, limit int) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]uint64, 0)
	// Iterate in key order so repeated scans are deterministic.
	for subID := uint64(1); subID < s.nextID; subID++ {
		sub, ok := s.subscriptions[subID]
		if !ok {
			continue
		}
		if !sub.Status.Chargeable() {
			continue
		}
		if sub.Due(now) {
			result = append(result, subID)
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

// Config Store implementation

func (s *Store) InitConfig(_ context.Context, cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg != nil {
		return vault.ErrAlreadyInitialized
	}
	c := *cfg
	s.cfg = &c
	return nil
}

func (s *Store) GetConfig(_ context.Context) (*config.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cfg == nil {
		return nil, vault.ErrNotInitialized
	}
	c := *s.cfg
	return &c, nil
}

func (s *Store) UpdateConfig(_ context.Context, cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg == nil {
		return vault.ErrNotInitialized
	}
	c := *cfg
	s.cfg = &c
	return nil
}

// Merchant settlement implementation

// ApplyCharge persists the charged record and credits the merchant under
// one lock, so a failure leaves neither side applied.
func (s *Store) ApplyCharge(_ context.Context, sub *subscription.Subscription, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscriptions[sub.ID]; !ok {
		return vault.ErrSubscriptionNotFound
	}
	key := sub.Merchant.String()
	accrued, ok := types.AddI64(s.merchantBalances[key], amount)
	if !ok {
		return vault.ErrOverflow
	}

	s.subscriptions[sub.ID] = clone(sub)
	s.merchantBalances[key] = accrued
	return nil
}

func (s *Store) CreditMerchant(_ context.Context, merchant id.AccountID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := merchant.String()
	accrued, ok := types.AddI64(s.merchantBalances[key], amount)
	if !ok {
		return vault.ErrOverflow
	}
	s.merchantBalances[key] = accrued
	return nil
}

func (s *Store) DebitMerchant(_ context.Context, merchant id.AccountID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := merchant.String()
	if s.merchantBalances[key] < amount {
		return vault.ErrInsufficientBalance
	}
	s.merchantBalances[key] -= amount
	return nil
}

func (s *Store) MerchantBalance(_ context.Context, merchant id.AccountID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.merchantBalances[merchant.String()], nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error { return nil }
func (s *Store) Ping(_ context.Context) error    { return nil }
func (s *Store) Close() error                    { return nil }
