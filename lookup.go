package sigpart

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"

	sperrors "github.com/tamirms/sigpart/errors"
	"github.com/tamirms/sigpart/internal/encoding"
)

// BlockFile is a read-only view of one super-block file.
//
// Record and Records are safe for concurrent use. Close must only be called
// after all reads have completed.
type BlockFile struct {
	mmap mmap.MMap
	data []byte
	n    int
}

// OpenBlock memory-maps the super-block file at path.
func OpenBlock(path string) (*BlockFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open block file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat block file: %w", err)
	}
	count, tail := encoding.Records(stat.Size())
	if tail != 0 {
		return nil, fmt.Errorf("%w: %s has %d trailing bytes", sperrors.ErrTruncatedBlock, path, tail)
	}
	if count == 0 {
		return &BlockFile{}, nil
	}

	mm, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap block file: %w", err)
	}
	return &BlockFile{mmap: mm, data: []byte(mm), n: int(count)}, nil
}

// Len returns the number of records in the block.
func (b *BlockFile) Len() int { return b.n }

// Record returns the i-th record. i must be in [0, Len()).
func (b *BlockFile) Record(i int) Record {
	x, y, z, sig := encoding.ReadSlot(b.data, i)
	return Record{Point: Point3D{X: x, Y: y, Z: z}, Sig: Signature(sig)}
}

// Records decodes every record of the block.
func (b *BlockFile) Records() []Record {
	recs := make([]Record, b.n)
	for i := range recs {
		recs[i] = b.Record(i)
	}
	return recs
}

// Close unmaps the file. Idempotent.
func (b *BlockFile) Close() error {
	if b.mmap == nil {
		return nil
	}
	err := b.mmap.Unmap()
	b.mmap = nil
	b.data = nil
	b.n = 0
	return err
}

// Store reads the outputs of a completed run.
type Store struct {
	root     string
	manifest *Manifest
}

// OpenStore reads the manifest under root.
func OpenStore(root string) (*Store, error) {
	m, err := ReadManifest(filepath.Join(root, ManifestName))
	if err != nil {
		return nil, err
	}
	return &Store{root: root, manifest: m}, nil
}

// Manifest returns the run's manifest.
func (s *Store) Manifest() *Manifest { return s.manifest }

// BlockPath returns the path of the super-block file that would hold p.
func (s *Store) BlockPath(p Point3D) string {
	return filepath.Join(s.root, BlocksDir, BlockKeyOf(p, s.manifest.BlockSize).String())
}

// SignatureAt returns the stored record closest to p, searching only p's
// super-block. Records further than maxDistance (Euclidean) are ignored;
// ErrPointNotFound is returned when none remain or the block does not exist.
func (s *Store) SignatureAt(p Point3D, maxDistance float64) (Record, error) {
	b, err := OpenBlock(s.BlockPath(p))
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, sperrors.ErrPointNotFound
	}
	if err != nil {
		return Record{}, err
	}
	defer b.Close()

	best := Record{}
	bestDist := math.Inf(1)
	for i := range b.Len() {
		r := b.Record(i)
		dist := distance(p, r.Point)
		if dist <= maxDistance && dist < bestDist {
			best, bestDist = r, dist
		}
	}
	if math.IsInf(bestDist, 1) {
		return Record{}, sperrors.ErrPointNotFound
	}
	return best, nil
}

// PartitionsFor returns the bucket of sig in every hamming<i> tree.
func (s *Store) PartitionsFor(sig Signature) []uint32 {
	return s.manifest.PartitionsFor(sig)
}

// HammingDistance returns the number of differing bits of a and b.
func HammingDistance(a, b Signature) int {
	return bits.OnesCount64(uint64(a ^ b))
}

func distance(a, b Point3D) float64 {
	dx := float64(a.X) - float64(b.X)
	dy := float64(a.Y) - float64(b.Y)
	dz := float64(a.Z) - float64(b.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
