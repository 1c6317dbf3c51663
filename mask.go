package sigpart

import (
	"math/rand/v2"

	sperrors "github.com/tamirms/sigpart/errors"
	intbits "github.com/tamirms/sigpart/internal/bits"
)

// GenerateMasks derives numBits/hashBits bit-disjoint masks whose union
// covers bits [0, numBits).
//
// Bit positions 0..numBits-1 are Fisher-Yates shuffled by a PCG source
// seeded with seed, then split into consecutive groups of hashBits; mask i
// selects the positions of group i. The same arguments always produce the
// same masks in the same order.
func GenerateMasks(numBits, hashBits int, seed uint64) ([]uint64, error) {
	if numBits <= 0 || numBits > 64 || numBits%8 != 0 {
		return nil, sperrors.ErrInvalidNumBits
	}
	if hashBits <= 0 || numBits%hashBits != 0 {
		return nil, sperrors.ErrInvalidHashBits
	}

	positions := make([]int, numBits)
	for i := range positions {
		positions[i] = i
	}
	intbits.Shuffle(positions, newSource(seed))

	masks := make([]uint64, 0, numBits/hashBits)
	for start := 0; start < numBits; start += hashBits {
		masks = append(masks, intbits.MaskFromPositions(positions[start:start+hashBits]))
	}
	return masks, nil
}

// newSource returns the random source used for every seeded shuffle.
func newSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, 0)
}
