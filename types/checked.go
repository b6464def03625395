package types

import "math"

// Overflow-checked integer arithmetic for balances (int64, smallest token
// unit) and ledger timestamps (uint64 seconds). Every monetary or time
// computation in the charge path goes through these helpers; nothing in
// Vault is allowed to wrap silently.

// AddU64 returns a+b and reports whether the sum fits in uint64.
func AddU64(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// AddI64 returns a+b and reports whether the sum fits in int64.
func AddI64(a, b int64) (int64, bool) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, false
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, false
	}
	return a + b, true
}

// SubI64 returns a-b and reports whether the difference fits in int64.
func SubI64(a, b int64) (int64, bool) {
	if b < 0 && a > math.MaxInt64+b {
		return 0, false
	}
	if b > 0 && a < math.MinInt64+b {
		return 0, false
	}
	return a - b, true
}

// MulI64 returns a*b and reports whether the product fits in int64.
func MulI64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == math.MinInt64 && b == -1) || (b == math.MinInt64 && a == -1) {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}
