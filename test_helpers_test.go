package sigpart

import (
	"bytes"
	"encoding/binary"
	"hash/fnv"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
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

// randomRecords draws n records whose signatures come from a pool of the
// given size, so duplicates are common.
func randomRecords(rng *rand.Rand, n, pool int, extent uint32) []Record {
	sigs := make([]Signature, pool)
	for i := range sigs {
		sigs[i] = Signature(rng.Uint64())
	}
	recs := make([]Record, n)
	for i := range recs {
		recs[i] = Record{
			Point: Point3D{X: rng.Uint32N(extent), Y: rng.Uint32N(extent), Z: rng.Uint32N(extent)},
			Sig:   sigs[rng.IntN(pool)],
		}
	}
	return recs
}

func encodeRecords(recs []Record) []byte {
	buf := make([]byte, 0, len(recs)*RecordSize)
	for _, r := range recs {
		buf, _ = r.AppendBinary(buf)
	}
	return buf
}

func writeRecordFile(t *testing.T, recs []Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signatures.b")
	if err := os.WriteFile(path, encodeRecords(recs), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func buildDataset(t *testing.T, blockSize uint32, recs []Record) *Dataset {
	t.Helper()
	d, err := NewDataset(blockSize)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range recs {
		if err := d.Add(r); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

// csvRow is one parsed shard line.
type csvRow struct {
	Part  uint32
	Sig   int64
	Point Point3D
}

func parseRows(t *testing.T, data []byte) []csvRow {
	t.Helper()
	var rows []csvRow
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		f := strings.Split(line, ",")
		if len(f) != 5 {
			t.Fatalf("malformed row %q", line)
		}
		part, err1 := strconv.ParseUint(f[0], 10, 32)
		sig, err2 := strconv.ParseInt(f[1], 10, 64)
		x, err3 := strconv.ParseUint(f[2], 10, 32)
		y, err4 := strconv.ParseUint(f[3], 10, 32)
		z, err5 := strconv.ParseUint(f[4], 10, 32)
		for _, err := range []error{err1, err2, err3, err4, err5} {
			if err != nil {
				t.Fatalf("row %q: %v", line, err)
			}
		}
		rows = append(rows, csvRow{
			Part:  uint32(part),
			Sig:   sig,
			Point: Point3D{X: uint32(x), Y: uint32(y), Z: uint32(z)},
		})
	}
	return rows
}

// shardFiles lists the shard files of a pass directory in shard order.
func shardFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	type shard struct {
		index int
		path  string
	}
	var shards []shard
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), zstdSuffix)
		if !strings.HasPrefix(name, shardPrefix) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(name, shardPrefix))
		if err != nil {
			t.Fatalf("unexpected shard name %q", e.Name())
		}
		shards = append(shards, shard{idx, filepath.Join(dir, e.Name())})
	}
	slices.SortFunc(shards, func(a, b shard) int { return a.index - b.index })
	paths := make([]string, len(shards))
	for i, s := range shards {
		if s.index != i {
			t.Fatalf("shard numbering has a gap at %d", i)
		}
		paths[i] = s.path
	}
	return paths
}

// readShard returns the CSV text of a shard, decompressing .zst files.
func readShard(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, zstdSuffix) {
		return data
	}
	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	plain, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	return plain
}

// passRows reads every row of a pass directory in emission order.
func passRows(t *testing.T, dir string) []csvRow {
	t.Helper()
	var rows []csvRow
	for _, p := range shardFiles(t, dir) {
		rows = append(rows, parseRows(t, readShard(t, p))...)
	}
	return rows
}

func sortRecords(recs []Record) {
	slices.SortFunc(recs, func(a, b Record) int {
		if c := compareBlockKeys(BlockKey(a.Point), BlockKey(b.Point)); c != 0 {
			return c
		}
		switch {
		case a.Sig < b.Sig:
			return -1
		case a.Sig > b.Sig:
			return 1
		}
		return 0
	})
}

func samePoints(a, b []Point3D) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	cmpPt := func(p, q Point3D) int { return compareBlockKeys(BlockKey(p), BlockKey(q)) }
	slices.SortFunc(a, cmpPt)
	slices.SortFunc(b, cmpPt)
	return slices.Equal(a, b)
}
