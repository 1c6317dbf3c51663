package sigpart

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/zeebo/xxh3"

	sperrors "github.com/tamirms/sigpart/errors"
	"github.com/tamirms/sigpart/internal/encoding"
)

const (
	// contextCheckInterval is how often to check for context cancellation
	// while loading and emitting records.
	contextCheckInterval = 10000

	readBufferSize = 1 << 20
)

// Load reads concatenated 20-byte records from r until EOF and indexes them
// by signature and by super-block of edge length blockSize.
//
// A trailing partial record fails with ErrTruncatedInput unless
// WithAllowPartialRecord is given, in which case it is dropped.
func Load(ctx context.Context, r io.Reader, blockSize uint32, opts ...Option) (*Dataset, error) {
	cfg := newConfig(opts)
	d, err := NewDataset(blockSize)
	if err != nil {
		return nil, err
	}

	hasher := xxh3.New()
	br := bufio.NewReaderSize(io.TeeReader(r, hasher), readBufferSize)

	var buf [RecordSize]byte
	var offset int64
	for n := 0; ; n++ {
		if n%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		k, err := io.ReadFull(br, buf[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			if err := cfg.partialRecord(offset, k); err != nil {
				return nil, err
			}
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record at offset %d: %w", offset, err)
		}
		if err := d.Add(decodeRecord(buf[:])); err != nil {
			return nil, err
		}
		offset += RecordSize
	}
	d.sourceHash = hasher.Sum64()

	cfg.logger.Info("loaded signatures",
		"records", d.Len(),
		"signatures", d.NumSignatures(),
		"blocks", d.NumBlocks())
	return d, nil
}

// LoadFile memory-maps the file at path and loads its records.
// Semantics match Load. Inputs that are not regular files, such as a FIFO
// or /dev/stdin, are read through Load instead.
func LoadFile(ctx context.Context, path string, blockSize uint32, opts ...Option) (_ *Dataset, err error) {
	cfg := newConfig(opts)
	d, err := NewDataset(blockSize)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open signature file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat signature file: %w", err)
	}
	// Pipes and devices report no size and cannot be mapped; stream them.
	if !stat.Mode().IsRegular() {
		cfg.logger.Debug("streaming non-regular input", "path", path, "mode", stat.Mode().String())
		return Load(ctx, file, blockSize, opts...)
	}
	size := stat.Size()
	if size == 0 {
		d.sourceHash = xxh3.Hash(nil)
		return d, nil
	}

	count, tail := encoding.Records(size)
	if tail != 0 {
		if err := cfg.partialRecord(count*RecordSize, tail); err != nil {
			return nil, err
		}
	}

	fadviseSequential(int(file.Fd()), 0, size)
	mm, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap signature file: %w", err)
	}
	defer func() {
		if unmapErr := mm.Unmap(); unmapErr != nil {
			err = errors.Join(err, fmt.Errorf("unmap signature file: %w", unmapErr))
		}
	}()

	data := []byte(mm)
	for i := range count {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err := d.Add(decodeRecord(data[i*RecordSize:])); err != nil {
			return nil, err
		}
	}
	d.sourceHash = xxh3.Hash(data)

	cfg.logger.Info("loaded signatures",
		"path", path,
		"records", d.Len(),
		"signatures", d.NumSignatures(),
		"blocks", d.NumBlocks())
	return d, nil
}

// partialRecord applies the truncation policy to a trailing record of tail
// bytes starting at offset.
func (c *config) partialRecord(offset int64, tail int) error {
	if !c.allowPartial {
		return fmt.Errorf("%w: %d trailing bytes at offset %d", sperrors.ErrTruncatedInput, tail, offset)
	}
	c.logger.Warn("dropping partial trailing record", "offset", offset, "bytes", tail)
	return nil
}
