package sigpart

import (
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	"github.com/tamirms/sigpart/internal/encoding"
)

// writeBlockFile writes every record of one super-block to path, in read
// order, using the input's 20-byte layout. The file is pre-allocated to its
// exact size and filled through a writable memory map. It returns the
// xxhash64 of the written bytes.
func writeBlockFile(path string, d *Dataset, key BlockKey) (uint64, error) {
	size := int64(d.BlockLen(key)) * RecordSize

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create block file: %w", err)
	}
	if size == 0 {
		return xxhash.Sum64(nil), file.Close()
	}

	// Pre-allocate disk blocks to prevent SIGBUS on disk full
	if err := fallocateFile(file, size); err != nil {
		primaryErr := fmt.Errorf("allocate block file: %w", err)
		return 0, errors.Join(primaryErr, file.Close())
	}

	mm, err := mmap.MapRegion(file, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("mmap block file: %w", err)
		return 0, errors.Join(primaryErr, file.Close())
	}
	data := []byte(mm)
	prefaultRegion(data)

	off := 0
	d.eachBlockRecord(key, func(r Record) {
		encoding.PutRecord(data[off:], r.Point.X, r.Point.Y, r.Point.Z, uint64(r.Sig))
		off += RecordSize
	})
	checksum := xxhash.Sum64(data)

	// Flush dirty pages before unmapping
	if err := mm.Flush(); err != nil {
		primaryErr := fmt.Errorf("flush block file: %w", err)
		return 0, errors.Join(primaryErr, mm.Unmap(), file.Close())
	}
	if err := mm.Unmap(); err != nil {
		primaryErr := fmt.Errorf("unmap block file: %w", err)
		return 0, errors.Join(primaryErr, file.Close())
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("close block file: %w", err)
	}
	return checksum, nil
}
