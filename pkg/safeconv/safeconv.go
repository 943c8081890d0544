// Package safeconv provides integer type conversions that never wrap silently.
package safeconv

import "math"

// MaxInt64 is the maximum value for int64 type.
const MaxInt64 = int64(math.MaxInt64)

// ClampUint64ToInt64 converts uint64 to int64, saturating at MaxInt64.
func ClampUint64ToInt64(v uint64) int64 {
	if v > uint64(MaxInt64) {
		return MaxInt64
	}

	return int64(v)
}

// MustIntToUint64 converts int to uint64, panics if negative.
// Use only when negative values are logically impossible.
func MustIntToUint64(v int) uint64 {
	if v < 0 {
		panic("safeconv: negative int to uint64 conversion")
	}

	return uint64(v)
}
