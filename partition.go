package sigpart

import (
	"slices"

	intbits "github.com/tamirms/sigpart/internal/bits"
)

// Partition returns the bucket of sig under mask: the masked signature is
// passed through the MurmurHash3 finalizer and reduced modulo partitions.
// partitions must be positive.
func Partition(sig Signature, mask uint64, partitions uint32) uint32 {
	return uint32(intbits.Mix64(uint64(sig)&mask) % uint64(partitions))
}

// Sample caps the points emitted for one signature.
//
// With at most maxMatch points, points is returned unchanged. Otherwise a
// copy is shuffled by a fresh source seeded with seed and its first maxMatch
// entries are returned; points itself is never reordered, so every mask pass
// keeps the same subset for a given seed.
func Sample(points []Point3D, maxMatch int, seed uint64) []Point3D {
	if maxMatch < 0 {
		maxMatch = 0
	}
	if len(points) <= maxMatch {
		return points
	}
	shuffled := slices.Clone(points)
	intbits.Shuffle(shuffled, newSource(seed))
	return shuffled[:maxMatch]
}
