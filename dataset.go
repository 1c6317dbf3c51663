package sigpart

import (
	"math"
	"slices"

	sperrors "github.com/tamirms/sigpart/errors"
)

// maxRecords bounds the arena so positions fit in uint32.
const maxRecords = math.MaxUint32

// Dataset holds every loaded record exactly once, plus two multimaps of
// arena positions: one keyed by signature and one keyed by super-block.
// Both keep positions in input read order.
//
// A Dataset is built by a single goroutine. Once loading is finished the
// read methods are safe for concurrent use, provided Signatures and Blocks
// have been called once beforehand (they cache their sorted results).
type Dataset struct {
	blockSize uint32
	records   []Record
	bySig     map[Signature][]uint32
	byBlock   map[BlockKey][]uint32

	sourceHash uint64

	// Sorted key caches, reset by Add.
	sigs   []Signature
	blocks []BlockKey
}

// NewDataset returns an empty dataset grouping points into super-blocks of
// the given edge length.
func NewDataset(blockSize uint32) (*Dataset, error) {
	if blockSize == 0 {
		return nil, sperrors.ErrInvalidBlockSize
	}
	return &Dataset{
		blockSize: blockSize,
		bySig:     make(map[Signature][]uint32),
		byBlock:   make(map[BlockKey][]uint32),
	}, nil
}

// Add appends a record to the arena and indexes it under its signature and
// its super-block.
func (d *Dataset) Add(r Record) error {
	if uint64(len(d.records)) >= maxRecords {
		return sperrors.ErrTooManyRecords
	}
	pos := uint32(len(d.records))
	d.records = append(d.records, r)
	d.bySig[r.Sig] = append(d.bySig[r.Sig], pos)
	key := BlockKeyOf(r.Point, d.blockSize)
	d.byBlock[key] = append(d.byBlock[key], pos)
	d.sigs = nil
	d.blocks = nil
	return nil
}

// BlockSize returns the super-block edge length.
func (d *Dataset) BlockSize() uint32 { return d.blockSize }

// Len returns the number of records loaded.
func (d *Dataset) Len() int { return len(d.records) }

// Record returns the i-th record in input order.
func (d *Dataset) Record(i int) Record { return d.records[i] }

// SourceHash returns the xxh3-64 hash of the raw input bytes the dataset
// was loaded from. Zero for datasets built with Add.
func (d *Dataset) SourceHash() uint64 { return d.sourceHash }

// NumSignatures returns the number of distinct signatures.
func (d *Dataset) NumSignatures() int { return len(d.bySig) }

// NumBlocks returns the number of non-empty super-blocks.
func (d *Dataset) NumBlocks() int { return len(d.byBlock) }

// Signatures returns the distinct signatures in ascending order.
// The returned slice is shared; callers must not modify it.
func (d *Dataset) Signatures() []Signature {
	if d.sigs == nil {
		sigs := make([]Signature, 0, len(d.bySig))
		for s := range d.bySig {
			sigs = append(sigs, s)
		}
		slices.Sort(sigs)
		d.sigs = sigs
	}
	return d.sigs
}

// Count returns how many records carry sig.
func (d *Dataset) Count(sig Signature) int { return len(d.bySig[sig]) }

// Points returns the coordinates sharing sig, in input read order.
func (d *Dataset) Points(sig Signature) []Point3D {
	positions := d.bySig[sig]
	if len(positions) == 0 {
		return nil
	}
	pts := make([]Point3D, len(positions))
	for i, pos := range positions {
		pts[i] = d.records[pos].Point
	}
	return pts
}

// Blocks returns the non-empty super-block keys in ascending (x, y, z) order.
// The returned slice is shared; callers must not modify it.
func (d *Dataset) Blocks() []BlockKey {
	if d.blocks == nil {
		keys := make([]BlockKey, 0, len(d.byBlock))
		for k := range d.byBlock {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareBlockKeys)
		d.blocks = keys
	}
	return d.blocks
}

// BlockLen returns the number of records in the super-block.
func (d *Dataset) BlockLen(key BlockKey) int { return len(d.byBlock[key]) }

// BlockRecords returns the records of a super-block in input read order.
func (d *Dataset) BlockRecords(key BlockKey) []Record {
	positions := d.byBlock[key]
	if len(positions) == 0 {
		return nil
	}
	recs := make([]Record, len(positions))
	for i, pos := range positions {
		recs[i] = d.records[pos]
	}
	return recs
}

// eachBlockRecord calls fn for every record of a super-block in read order
// without materializing a slice.
func (d *Dataset) eachBlockRecord(key BlockKey, fn func(Record)) {
	for _, pos := range d.byBlock[key] {
		fn(d.records[pos])
	}
}
