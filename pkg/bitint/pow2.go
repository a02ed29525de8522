// SPDX-License-Identifier: MIT
//
// Package bitint provides power-of-2 helpers used for FFT and buffer sizing.
// All operations are O(1), allocation-free and safe to call from the audio
// hot path.
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size. Powers of 2 are
// returned unchanged; zero and negative inputs map to 1.
//
// The size-1 subtraction is what preserves exact powers of 2: without it
// an input of 8 would report a bit length of 4 and be doubled to 16.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}

	// 64-bit platforms (where int is 64-bit)
	if ^uint(0)>>63 == 0 {
		return int(1 << (bits.Len64(uint64(size - 1))))
	}

	// 32-bit platforms
	return int(1 << (bits.Len32(uint32(size - 1))))
}

// IsPowerOfTwo reports whether size is a positive power of 2.
func IsPowerOfTwo(size int) bool {
	return size > 0 && (size&(size-1)) == 0
}
