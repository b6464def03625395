package subscription

import (
	"errors"
	"testing"
)

var allStatuses = []Status{
	StatusActive,
	StatusPaused,
	StatusGracePeriod,
	StatusInsufficientBalance,
	StatusCancelled,
}

func TestSelfTransitionAlwaysAllowed(t *testing.T) {
	for _, s := range allStatuses {
		t.Run(string(s), func(t *testing.T) {
			if err := ValidateTransition(s, s); err != nil {
				t.Errorf("self-transition %s -> %s should be valid: %v", s, s, err)
			}
		})
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusActive, StatusPaused, true},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusInsufficientBalance, true},
		{StatusActive, StatusGracePeriod, true},

		{StatusPaused, StatusActive, true},
		{StatusPaused, StatusCancelled, true},
		{StatusPaused, StatusInsufficientBalance, false},
		{StatusPaused, StatusGracePeriod, false},

		{StatusGracePeriod, StatusActive, true},
		{StatusGracePeriod, StatusInsufficientBalance, true},
		{StatusGracePeriod, StatusPaused, false},
		{StatusGracePeriod, StatusCancelled, false},

		{StatusInsufficientBalance, StatusActive, true},
		{StatusInsufficientBalance, StatusCancelled, true},
		{StatusInsufficientBalance, StatusPaused, false},
		{StatusInsufficientBalance, StatusGracePeriod, false},

		{StatusCancelled, StatusActive, false},
		{StatusCancelled, StatusPaused, false},
		{StatusCancelled, StatusGracePeriod, false},
		{StatusCancelled, StatusInsufficientBalance, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}

			err := ValidateTransition(tt.from, tt.to)
			if tt.allowed && err != nil {
				t.Errorf("ValidateTransition(%s, %s) = %v, want nil", tt.from, tt.to, err)
			}
			if !tt.allowed && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("ValidateTransition(%s, %s) = %v, want ErrInvalidTransition", tt.from, tt.to, err)
			}
		})
	}
}

func TestAllowedTransitions(t *testing.T) {
	tests := []struct {
		from Status
		want []Status
	}{
		{StatusActive, []Status{StatusPaused, StatusCancelled, StatusInsufficientBalance, StatusGracePeriod}},
		{StatusPaused, []Status{StatusActive, StatusCancelled}},
		{StatusGracePeriod, []Status{StatusActive, StatusInsufficientBalance}},
		{StatusInsufficientBalance, []Status{StatusActive, StatusCancelled}},
		{StatusCancelled, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got := AllowedTransitions(tt.from)
			if len(got) != len(tt.want) {
				t.Fatalf("AllowedTransitions(%s) has %d entries, want %d", tt.from, len(got), len(tt.want))
			}
			for _, want := range tt.want {
				found := false
				for _, g := range got {
					if g == want {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("AllowedTransitions(%s) missing %s", tt.from, want)
				}
			}
		})
	}
}

func TestAllowedTransitionsReturnsCopy(t *testing.T) {
	first := AllowedTransitions(StatusActive)
	first[0] = StatusCancelled

	second := AllowedTransitions(StatusActive)
	if second[0] != StatusPaused {
		t.Error("mutating the returned slice must not affect the table")
	}
}

func TestStatusHelpers(t *testing.T) {
	if !StatusActive.Chargeable() || !StatusGracePeriod.Chargeable() {
		t.Error("Active and GracePeriod must be chargeable")
	}
	for _, s := range []Status{StatusPaused, StatusInsufficientBalance, StatusCancelled} {
		if s.Chargeable() {
			t.Errorf("%s must not be chargeable", s)
		}
	}
	if !StatusCancelled.Terminal() {
		t.Error("Cancelled must be terminal")
	}
	if Status("bogus").Valid() {
		t.Error("unknown status must not be valid")
	}
	for _, s := range allStatuses {
		if !s.Valid() {
			t.Errorf("%s must be valid", s)
		}
	}
}

func TestNextAllowedOverflow(t *testing.T) {
	s := &Subscription{LastPaymentTimestamp: ^uint64(0), IntervalSeconds: 1}
	if _, ok := s.NextAllowed(); ok {
		t.Error("expected overflow")
	}
}

func TestDue(t *testing.T) {
	s := &Subscription{
		Status:               StatusActive,
		LastPaymentTimestamp: 1000,
		IntervalSeconds:      100,
	}
	if s.Due(1099) {
		t.Error("not due one second before the boundary")
	}
	if !s.Due(1100) {
		t.Error("due exactly at the boundary")
	}
	if !s.Due(2000) {
		t.Error("due after the boundary")
	}

	s.Status = StatusPaused
	if s.Due(2000) {
		t.Error("paused subscriptions are never due")
	}
}
