package types

import (
	"math"
	"testing"
)

func TestAddU64(t *testing.T) {
	tests := []struct {
		name   string
		a, b   uint64
		want   uint64
		wantOK bool
	}{
		{"simple", 1000, 2_592_000, 2_593_000, true},
		{"zero", 0, 0, 0, true},
		{"at max", math.MaxUint64 - 1, 1, math.MaxUint64, true},
		{"overflow", math.MaxUint64, 1, 0, false},
		{"overflow both large", math.MaxUint64 / 2 + 1, math.MaxUint64 / 2 + 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AddU64(tt.a, tt.b)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAddI64(t *testing.T) {
	tests := []struct {
		name   string
		a, b   int64
		want   int64
		wantOK bool
	}{
		{"simple", 1000, 2000, 3000, true},
		{"negative", -1000, 500, -500, true},
		{"at max", math.MaxInt64 - 1, 1, math.MaxInt64, true},
		{"overflow", math.MaxInt64, 1, 0, false},
		{"underflow", math.MinInt64, -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AddI64(tt.a, tt.b)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSubI64(t *testing.T) {
	tests := []struct {
		name   string
		a, b   int64
		want   int64
		wantOK bool
	}{
		{"simple", 10_000_000, 1000, 9_999_000, true},
		{"to zero", 1000, 1000, 0, true},
		{"below zero", 500, 1000, -500, true},
		{"underflow", math.MinInt64, 1, 0, false},
		{"overflow", math.MaxInt64, -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SubI64(tt.a, tt.b)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMulI64(t *testing.T) {
	tests := []struct {
		name   string
		a, b   int64
		want   int64
		wantOK bool
	}{
		{"simple", 1000, 6, 6000, true},
		{"zero lhs", 0, 12, 0, true},
		{"zero rhs", 12, 0, 0, true},
		{"negative", -1000, 3, -3000, true},
		{"overflow", math.MaxInt64, 2, 0, false},
		{"min times minus one", math.MinInt64, -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MulI64(tt.a, tt.b)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
