// Package bits provides low-level bit manipulation primitives.
package bits

import (
	"math/bits"
	"math/rand/v2"
)

// Finalizer constants of the 64-bit MurmurHash3 mixer.
const (
	mixC1 = 0xff51afd7ed558ccd
	mixC2 = 0xc4ceb9fe1a85ec53
)

// FastRange32 maps a 64-bit hash uniformly to [0, n) returning uint32.
// Uses the "fastrange" technique: multiply and take high bits.
// This is the standard way to map hashes to ranges without modulo bias.
func FastRange32(hash uint64, n uint32) uint32 {
	if n == 0 {
		return 0
	}
	hi, _ := bits.Mul64(hash, uint64(n))
	return uint32(hi)
}

// Mix64 is the MurmurHash3 64-bit finalizer. It is a bijection on uint64
// and maps 0 to 0.
func Mix64(h uint64) uint64 {
	h ^= h >> 33
	h *= mixC1
	h ^= h >> 33
	h *= mixC2
	h ^= h >> 33
	return h
}

// MaskFromPositions sets the given bit positions in an all-zero word.
// Positions outside [0, 64) are ignored.
func MaskFromPositions(positions []int) uint64 {
	var m uint64
	for _, p := range positions {
		if p >= 0 && p < 64 {
			m |= uint64(1) << p
		}
	}
	return m
}

// Shuffle permutes s in place with a Fisher-Yates pass driven by src.
//
// The index draw is FastRange32 over src.Uint64(), so the permutation depends
// only on the source's output stream and is stable across Go releases.
// len(s) must fit in uint32.
func Shuffle[T any](s []T, src rand.Source) {
	for i := len(s) - 1; i > 0; i-- {
		j := FastRange32(src.Uint64(), uint32(i+1))
		s[i], s[j] = s[j], s[i]
	}
}
