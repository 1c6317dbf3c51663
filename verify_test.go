package sigpart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	sperrors "github.com/tamirms/sigpart/errors"
)

func processedRun(t *testing.T) string {
	t.Helper()
	rng := newTestRNG(t)
	d := buildDataset(t, 128, randomRecords(rng, 800, 100, 512))
	out := t.TempDir()
	if _, err := Process(context.Background(), d, out, 5, WithMaxEntries(250)); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestVerify(t *testing.T) {
	out := processedRun(t)
	if err := Verify(out); err != nil {
		t.Fatalf("Verify on a fresh run: %v", err)
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	tests := []struct {
		name string
		file func(out string) string
	}{
		{"Block", func(out string) string {
			entries, _ := os.ReadDir(filepath.Join(out, BlocksDir))
			return filepath.Join(out, BlocksDir, entries[0].Name())
		}},
		{"Shard", func(out string) string {
			return filepath.Join(out, PassDir(1), shardName(0, false))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := processedRun(t)
			path := tt.file(out)
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			data[len(data)/2] ^= 0x01
			if err := os.WriteFile(path, data, 0o644); err != nil {
				t.Fatal(err)
			}
			if err := Verify(out); !errors.Is(err, sperrors.ErrChecksumFailed) {
				t.Fatalf("Verify error = %v, want ErrChecksumFailed", err)
			}
		})
	}
}

func TestVerifyMissingFile(t *testing.T) {
	out := processedRun(t)
	if err := os.Remove(filepath.Join(out, PassDir(0), shardName(0, false))); err != nil {
		t.Fatal(err)
	}
	if err := Verify(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Verify error = %v, want os.ErrNotExist", err)
	}
}

func TestVerifyMissingManifest(t *testing.T) {
	if err := Verify(t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Verify error = %v, want os.ErrNotExist", err)
	}
}

func TestVerifyUnlistedFile(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"StaleShard", filepath.Join(PassDir(0), shardName(7, false))},
		{"StaleBlock", filepath.Join(BlocksDir, "99_99_99")},
		{"StalePassDir", filepath.Join(PassDir(9), shardName(0, false))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := processedRun(t)
			path := filepath.Join(out, tt.path)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte("1,2,3,4,5\n"), 0o644); err != nil {
				t.Fatal(err)
			}
			if err := Verify(out); !errors.Is(err, sperrors.ErrUnlistedFile) {
				t.Fatalf("Verify error = %v, want ErrUnlistedFile", err)
			}
		})
	}
}

func TestVerifyUnrelatedFileIgnored(t *testing.T) {
	out := processedRun(t)
	if err := os.WriteFile(filepath.Join(out, "README"), []byte("run notes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Verify(out); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

// TestVerifyNoChecksums covers manifests that carry only the mask, block
// size and bit width keys.
func TestVerifyNoChecksums(t *testing.T) {
	out := t.TempDir()
	doc := `{"ham_0": "65535", "block_size": 64, "num_bits": 16}`
	if err := os.WriteFile(filepath.Join(out, ManifestName), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Verify(out); !errors.Is(err, sperrors.ErrNoChecksums) {
		t.Fatalf("Verify error = %v, want ErrNoChecksums", err)
	}
}
