// Package encoding provides the fixed-width record layout shared by the
// signature input stream and the super-block output files.
//
// Layout (20 bytes, little-endian):
//
//	Offset  Size  Field
//	0       4     X          uint32_le
//	4       4     Y          uint32_le
//	8       4     Z          uint32_le
//	12      8     Signature  uint64_le
package encoding

import "encoding/binary"

// RecordSize is the encoded size of one record in bytes.
const RecordSize = 20

// PutRecord writes a record into dst. dst must be at least RecordSize bytes.
func PutRecord(dst []byte, x, y, z uint32, sig uint64) {
	_ = dst[RecordSize-1]
	binary.LittleEndian.PutUint32(dst[0:4], x)
	binary.LittleEndian.PutUint32(dst[4:8], y)
	binary.LittleEndian.PutUint32(dst[8:12], z)
	binary.LittleEndian.PutUint64(dst[12:20], sig)
}

// AppendRecord appends the encoded record to dst.
func AppendRecord(dst []byte, x, y, z uint32, sig uint64) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, x)
	dst = binary.LittleEndian.AppendUint32(dst, y)
	dst = binary.LittleEndian.AppendUint32(dst, z)
	return binary.LittleEndian.AppendUint64(dst, sig)
}

// ReadRecord decodes the record at the start of src.
// src must be at least RecordSize bytes.
func ReadRecord(src []byte) (x, y, z uint32, sig uint64) {
	_ = src[RecordSize-1]
	x = binary.LittleEndian.Uint32(src[0:4])
	y = binary.LittleEndian.Uint32(src[4:8])
	z = binary.LittleEndian.Uint32(src[8:12])
	sig = binary.LittleEndian.Uint64(src[12:20])
	return
}

// ReadSlot decodes the record at slot position i of buf.
func ReadSlot(buf []byte, i int) (x, y, z uint32, sig uint64) {
	return ReadRecord(buf[i*RecordSize:])
}

// Records returns the number of whole records in n bytes and the length of
// any trailing partial record.
func Records(n int64) (count int64, tail int) {
	return n / RecordSize, int(n % RecordSize)
}
