package sigpart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	sperrors "github.com/tamirms/sigpart/errors"
)

func TestOpenBlock(t *testing.T) {
	rng := newTestRNG(t)
	recs := randomRecords(rng, 100, 10, 64)
	path := writeRecordFile(t, recs)

	b, err := OpenBlock(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if b.Len() != len(recs) {
		t.Fatalf("Len = %d, want %d", b.Len(), len(recs))
	}
	if !slices.Equal(b.Records(), recs) {
		t.Fatal("Records differ from the written records")
	}
	if b.Record(42) != recs[42] {
		t.Fatalf("Record(42) = %+v, want %+v", b.Record(42), recs[42])
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestOpenBlockEmpty(t *testing.T) {
	b, err := OpenBlock(writeRecordFile(t, nil))
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 0 || len(b.Records()) != 0 {
		t.Fatalf("empty block has %d records", b.Len())
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenBlockTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0_0_0")
	if err := os.WriteFile(path, make([]byte, RecordSize+3), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenBlock(path); !errors.Is(err, sperrors.ErrTruncatedBlock) {
		t.Fatalf("OpenBlock error = %v, want ErrTruncatedBlock", err)
	}
}

func TestStoreSignatureAt(t *testing.T) {
	recs := []Record{
		{Point: Point3D{100, 100, 100}, Sig: 11},
		{Point: Point3D{150, 100, 100}, Sig: 22},
		{Point: Point3D{400, 400, 400}, Sig: 33},
		{Point: Point3D{1100, 0, 0}, Sig: 44},
	}
	d := buildDataset(t, 1000, recs)
	out := t.TempDir()
	if _, err := Process(context.Background(), d, out, 10); err != nil {
		t.Fatal(err)
	}
	store, err := OpenStore(out)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		p       Point3D
		maxDist float64
		want    Signature
		wantErr error
	}{
		{"Exact", Point3D{150, 100, 100}, 100, 22, nil},
		{"Nearest", Point3D{110, 100, 100}, 100, 11, nil},
		{"Midway", Point3D{140, 100, 100}, 100, 22, nil},
		{"TooFar", Point3D{700, 700, 700}, 100, 0, sperrors.ErrPointNotFound},
		{"OtherBlockNotSearched", Point3D{999, 0, 0}, 500, 0, sperrors.ErrPointNotFound},
		{"MissingBlock", Point3D{5000, 5000, 5000}, 100, 0, sperrors.ErrPointNotFound},
		{"SecondBlock", Point3D{1100, 10, 0}, 100, 44, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := store.SignatureAt(tt.p, tt.maxDist)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if rec.Sig != tt.want {
				t.Fatalf("signature = %d, want %d", rec.Sig, tt.want)
			}
		})
	}

	parts := store.PartitionsFor(22)
	for i, mask := range store.Manifest().Masks {
		if parts[i] != Partition(22, mask, DefaultPartitions) {
			t.Fatalf("PartitionsFor mask %d = %d", i, parts[i])
		}
	}
}

func TestHammingDistance(t *testing.T) {
	tests := []struct {
		a, b Signature
		want int
	}{
		{0, 0, 0},
		{0, 1, 1},
		{0xFF, 0x0F, 4},
		{0, 0xFFFFFFFFFFFFFFFF, 64},
		{0xAAAAAAAAAAAAAAAA, 0x5555555555555555, 64},
	}
	for _, tt := range tests {
		if got := HammingDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("HammingDistance(%x, %x) = %d, want %d", uint64(tt.a), uint64(tt.b), got, tt.want)
		}
	}
}
