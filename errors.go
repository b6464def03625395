package vault

import (
	"errors"

	"github.com/xraph/vault/subscription"
)

// Sentinel errors for common failure scenarios. The taxonomy is closed:
// every operation fails with one of these values (or wraps one), and each
// has a stable numeric code for cross-boundary reporting (see Code).
var (
	// General errors
	ErrNotFound     = errors.New("vault: not found")
	ErrInvalidInput = errors.New("vault: invalid input")
	ErrUnauthorized = errors.New("vault: unauthorized")

	// Charge engine errors
	ErrSubscriptionNotFound = errors.New("vault: subscription not found")
	ErrNotActive            = errors.New("vault: subscription not active or in grace period")
	ErrIntervalNotElapsed   = errors.New("vault: billing interval not elapsed")
	ErrInsufficientBalance  = errors.New("vault: insufficient prepaid balance")
	ErrOverflow             = errors.New("vault: arithmetic overflow")

	// State machine errors
	ErrInvalidStatusTransition = errors.New("vault: invalid status transition")

	// Configuration errors
	ErrAlreadyInitialized = errors.New("vault: already initialized")
	ErrNotInitialized     = errors.New("vault: not initialized")

	// Funding errors
	ErrBelowMinimumTopUp     = errors.New("vault: deposit below minimum top-up")
	ErrInvalidRecoveryAmount = errors.New("vault: invalid recovery amount")

	// Store errors
	ErrStoreClosed = errors.New("vault: store is closed")
)

// Stable numeric error codes, used verbatim in BatchChargeResult.ErrorCode.
// The HTTP-flavored values are part of the external contract; never renumber.
const (
	CodeOK                      uint32 = 0
	CodeUnknown                 uint32 = 1
	CodeInvalidStatusTransition uint32 = 400
	CodeUnauthorized            uint32 = 401
	CodeInsufficientBalance     uint32 = 402
	CodeNotFound                uint32 = 404
	CodeBelowMinimumTopUp       uint32 = 406
	CodeAlreadyInitialized      uint32 = 409
	CodeNotActive               uint32 = 412
	CodeInvalidRecoveryAmount   uint32 = 422
	CodeIntervalNotElapsed      uint32 = 425
	CodeOverflow                uint32 = 500
)

// Code maps an error to its stable numeric code. A nil error maps to
// CodeOK; errors outside the taxonomy map to CodeUnknown.
func Code(err error) uint32 {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrInvalidStatusTransition), errors.Is(err, subscription.ErrInvalidTransition):
		return CodeInvalidStatusTransition
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrInsufficientBalance):
		return CodeInsufficientBalance
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSubscriptionNotFound), errors.Is(err, ErrNotInitialized):
		return CodeNotFound
	case errors.Is(err, ErrBelowMinimumTopUp):
		return CodeBelowMinimumTopUp
	case errors.Is(err, ErrAlreadyInitialized):
		return CodeAlreadyInitialized
	case errors.Is(err, ErrNotActive):
		return CodeNotActive
	case errors.Is(err, ErrInvalidRecoveryAmount):
		return CodeInvalidRecoveryAmount
	case errors.Is(err, ErrIntervalNotElapsed):
		return CodeIntervalNotElapsed
	case errors.Is(err, ErrOverflow):
		return CodeOverflow
	default:
		return CodeUnknown
	}
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound) ||
		errors.Is(err, ErrNotInitialized)
}

// IsChargeRejection returns true for the routine, non-mutating charge
// rejections that a scheduler can safely retry on the next tick.
func IsChargeRejection(err error) bool {
	return errors.Is(err, ErrIntervalNotElapsed) ||
		errors.Is(err, ErrNotActive)
}
