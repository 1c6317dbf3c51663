package sigpart

import (
	"math"
	"slices"
	"testing"
)

// TestPartitionKnownValues pins the masked hash against reference outputs
// of the MurmurHash3 finalizer reduced modulo 4000.
func TestPartitionKnownValues(t *testing.T) {
	tests := []struct {
		sig  Signature
		mask uint64
		want uint32
	}{
		{0, math.MaxUint64, 0},
		{1, math.MaxUint64, 2604},
		{2, math.MaxUint64, 1447},
		{0x0123456789abcdef, math.MaxUint64, 650},
		{math.MaxUint64, math.MaxUint64, 289},
		{0xFFFF0000, 0x0000FFFF, 0}, // masked to zero
		{0x10001, 0x0000FFFF, 2604}, // masked to one
	}
	for _, tt := range tests {
		if got := Partition(tt.sig, tt.mask, DefaultPartitions); got != tt.want {
			t.Errorf("Partition(0x%X, 0x%X) = %d, want %d", uint64(tt.sig), tt.mask, got, tt.want)
		}
	}
}

// TestPartitionRange verifies results lie in [0, partitions) and only depend
// on the masked bits.
func TestPartitionRange(t *testing.T) {
	rng := newTestRNG(t)
	masks, err := GenerateMasks(64, 16, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10000; i++ {
		sig := Signature(rng.Uint64())
		parts := uint32(rng.IntN(5000)) + 1
		for _, m := range masks {
			got := Partition(sig, m, parts)
			if got >= parts {
				t.Fatalf("Partition(0x%X, 0x%X, %d) = %d out of range", uint64(sig), m, parts, got)
			}
			noise := Signature(rng.Uint64() &^ m)
			if again := Partition(sig^noise, m, parts); again != got {
				t.Fatalf("unmasked bits changed the partition: %d vs %d", got, again)
			}
		}
	}
}

// TestPartitionSpread checks that one 16-bit mask spreads random signatures
// over most of the 4000 buckets.
func TestPartitionSpread(t *testing.T) {
	rng := newTestRNG(t)
	masks, err := GenerateMasks(64, 16, 0)
	if err != nil {
		t.Fatal(err)
	}
	used := make(map[uint32]bool)
	for i := 0; i < 40000; i++ {
		used[Partition(Signature(rng.Uint64()), masks[0], DefaultPartitions)] = true
	}
	if len(used) < DefaultPartitions*9/10 {
		t.Errorf("only %d of %d partitions used", len(used), DefaultPartitions)
	}
}

func TestSample(t *testing.T) {
	pts := make([]Point3D, 50)
	for i := range pts {
		pts[i] = Point3D{X: uint32(i), Y: uint32(2 * i), Z: uint32(3 * i)}
	}
	orig := slices.Clone(pts)

	t.Run("UnderCap", func(t *testing.T) {
		got := Sample(pts, 50, 0)
		if !slices.Equal(got, pts) {
			t.Fatal("points at the cap must be returned unchanged and in order")
		}
		got = Sample(pts[:3], 10, 0)
		if !slices.Equal(got, pts[:3]) {
			t.Fatal("points under the cap must be returned unchanged and in order")
		}
	})

	t.Run("OverCap", func(t *testing.T) {
		got := Sample(pts, 10, 0)
		if len(got) != 10 {
			t.Fatalf("len = %d, want 10", len(got))
		}
		seen := make(map[Point3D]bool)
		for _, p := range got {
			if !slices.Contains(orig, p) {
				t.Fatalf("sampled point %+v not in input", p)
			}
			if seen[p] {
				t.Fatalf("point %+v sampled twice", p)
			}
			seen[p] = true
		}
		if !slices.Equal(pts, orig) {
			t.Fatal("Sample reordered its input")
		}
		if again := Sample(pts, 10, 0); !slices.Equal(got, again) {
			t.Fatal("same seed produced a different sample")
		}
		if slices.Equal(got, pts[:10]) {
			t.Fatal("sample is the unshuffled prefix")
		}
	})

	t.Run("ZeroCap", func(t *testing.T) {
		if got := Sample(pts, 0, 0); len(got) != 0 {
			t.Fatalf("len = %d, want 0", len(got))
		}
	})
}
