package sigpart

import (
	"cmp"
	"strconv"

	"github.com/tamirms/sigpart/internal/encoding"
)

// RecordSize is the size in bytes of one encoded record:
// [x:u32][y:u32][z:u32][signature:u64], little-endian.
const RecordSize = encoding.RecordSize

// Point3D is a voxel coordinate.
type Point3D struct {
	X, Y, Z uint32
}

// Signature is an opaque 64-bit patch signature.
type Signature uint64

// Record is one (point, signature) row of the input stream.
type Record struct {
	Point Point3D
	Sig   Signature
}

// AppendBinary appends the 20-byte encoding of r to dst.
// It implements encoding.BinaryAppender and never fails.
func (r Record) AppendBinary(dst []byte) ([]byte, error) {
	return encoding.AppendRecord(dst, r.Point.X, r.Point.Y, r.Point.Z, uint64(r.Sig)), nil
}

// decodeRecord decodes the record at the start of src.
func decodeRecord(src []byte) Record {
	x, y, z, sig := encoding.ReadRecord(src)
	return Record{Point: Point3D{X: x, Y: y, Z: z}, Sig: Signature(sig)}
}

// BlockKey identifies a super-block: each coordinate integer-divided by the
// block edge length.
type BlockKey struct {
	X, Y, Z uint32
}

// BlockKeyOf returns the super-block containing p. size must be positive.
func BlockKeyOf(p Point3D, size uint32) BlockKey {
	return BlockKey{X: p.X / size, Y: p.Y / size, Z: p.Z / size}
}

// String renders the key as "xb_yb_zb", the super-block file name.
func (k BlockKey) String() string {
	buf := make([]byte, 0, 32)
	buf = strconv.AppendUint(buf, uint64(k.X), 10)
	buf = append(buf, '_')
	buf = strconv.AppendUint(buf, uint64(k.Y), 10)
	buf = append(buf, '_')
	buf = strconv.AppendUint(buf, uint64(k.Z), 10)
	return string(buf)
}

func compareBlockKeys(a, b BlockKey) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.Z, b.Z)
}
