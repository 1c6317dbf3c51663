package encoding

import (
	"bytes"
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// TestRecordLayout pins the byte layout against a hand-built buffer.
func TestRecordLayout(t *testing.T) {
	buf := make([]byte, RecordSize)
	PutRecord(buf, 0x04030201, 0x08070605, 0x0C0B0A09, 0x14131211100F0E0D)

	want := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x05, 0x06, 0x07, 0x08,
		0x09, 0x0A, 0x0B, 0x0C,
		0x0D, 0x0E, 0x0F, 0x10, 0x11, 0x12, 0x13, 0x14,
	}
	if !bytes.Equal(buf, want) {
		t.Fatalf("PutRecord layout = % x, want % x", buf, want)
	}

	if got := AppendRecord(nil, 0x04030201, 0x08070605, 0x0C0B0A09, 0x14131211100F0E0D); !bytes.Equal(got, want) {
		t.Fatalf("AppendRecord layout = % x, want % x", got, want)
	}
}

// TestReadSlot writes several records back to back and reads each slot.
func TestReadSlot(t *testing.T) {
	rng := newTestRNG(t)
	type rec struct {
		x, y, z uint32
		sig     uint64
	}
	recs := make([]rec, 50)
	var buf []byte
	for i := range recs {
		recs[i] = rec{rng.Uint32(), rng.Uint32(), rng.Uint32(), rng.Uint64()}
		buf = AppendRecord(buf, recs[i].x, recs[i].y, recs[i].z, recs[i].sig)
	}
	if len(buf) != len(recs)*RecordSize {
		t.Fatalf("buffer length = %d, want %d", len(buf), len(recs)*RecordSize)
	}
	for i, want := range recs {
		x, y, z, sig := ReadSlot(buf, i)
		if got := (rec{x, y, z, sig}); got != want {
			t.Errorf("slot %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestRecords(t *testing.T) {
	tests := []struct {
		n     int64
		count int64
		tail  int
	}{
		{0, 0, 0},
		{19, 0, 19},
		{20, 1, 0},
		{41, 2, 1},
		{200, 10, 0},
	}
	for _, tt := range tests {
		count, tail := Records(tt.n)
		if count != tt.count || tail != tt.tail {
			t.Errorf("Records(%d) = (%d, %d), want (%d, %d)", tt.n, count, tail, tt.count, tt.tail)
		}
	}
}
