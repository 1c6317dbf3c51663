package sigpart

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

const (
	shardPrefix     = "sigs_"
	zstdSuffix      = ".zst"
	shardBufferSize = 1 << 18
)

// ShardInfo describes one written CSV shard.
type ShardInfo struct {
	Name     string // File name inside the pass directory
	Rows     int
	Checksum uint64 // xxhash64 of the bytes on disk
}

// shardWriter splits one pass's CSV rows over sigs_<n> files.
//
// After every row, if the pass total is a multiple of maxEntries the current
// shard is closed and shard rows/maxEntries opened. sigs_0 therefore always
// exists, and an empty trailing shard is left when the total lands exactly
// on a boundary.
type shardWriter struct {
	dir        string
	maxEntries int
	compress   bool

	file   *os.File
	digest *xxhash.Digest
	zw     *zstd.Encoder
	bw     *bufio.Writer

	rows   int
	line   []byte
	shards []ShardInfo
}

func newShardWriter(dir string, maxEntries int, compress bool) (*shardWriter, error) {
	w := &shardWriter{
		dir:        dir,
		maxEntries: maxEntries,
		compress:   compress,
		digest:     xxhash.New(),
		line:       make([]byte, 0, 96),
	}
	if err := w.open(0); err != nil {
		return nil, err
	}
	return w, nil
}

func shardName(index int, compress bool) string {
	name := shardPrefix + strconv.Itoa(index)
	if compress {
		name += zstdSuffix
	}
	return name
}

func (w *shardWriter) open(index int) error {
	name := shardName(index, w.compress)
	f, err := os.Create(filepath.Join(w.dir, name))
	if err != nil {
		return fmt.Errorf("create shard %s: %w", name, err)
	}
	w.digest.Reset()

	sink := io.MultiWriter(f, w.digest)
	if w.compress {
		// A single encoder goroutine keeps the frame layout, and so the
		// checksum, independent of GOMAXPROCS.
		zw, err := zstd.NewWriter(sink, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return errors.Join(fmt.Errorf("create zstd encoder for %s: %w", name, err), f.Close())
		}
		w.zw = zw
		w.bw = bufio.NewWriterSize(zw, shardBufferSize)
	} else {
		w.bw = bufio.NewWriterSize(sink, shardBufferSize)
	}
	w.file = f
	w.shards = append(w.shards, ShardInfo{Name: name})
	return nil
}

// writeRow appends "partition,signature,x,y,z\n" with the signature printed
// as a signed 64-bit integer.
func (w *shardWriter) writeRow(partition uint32, sig Signature, p Point3D) error {
	line := w.line[:0]
	line = strconv.AppendUint(line, uint64(partition), 10)
	line = append(line, ',')
	line = strconv.AppendInt(line, int64(sig), 10)
	line = append(line, ',')
	line = strconv.AppendUint(line, uint64(p.X), 10)
	line = append(line, ',')
	line = strconv.AppendUint(line, uint64(p.Y), 10)
	line = append(line, ',')
	line = strconv.AppendUint(line, uint64(p.Z), 10)
	line = append(line, '\n')
	w.line = line

	if _, err := w.bw.Write(line); err != nil {
		return fmt.Errorf("write shard %s: %w", w.shards[len(w.shards)-1].Name, err)
	}
	w.rows++
	w.shards[len(w.shards)-1].Rows++

	if w.rows%w.maxEntries == 0 {
		if err := w.closeCurrent(); err != nil {
			return err
		}
		return w.open(w.rows / w.maxEntries)
	}
	return nil
}

// closeCurrent flushes and closes the open shard and records its checksum.
func (w *shardWriter) closeCurrent() error {
	if w.file == nil {
		return nil
	}
	cur := &w.shards[len(w.shards)-1]

	var errs []error
	if err := w.bw.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush shard %s: %w", cur.Name, err))
	}
	if w.zw != nil {
		if err := w.zw.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close zstd stream %s: %w", cur.Name, err))
		}
		w.zw = nil
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close shard %s: %w", cur.Name, err))
	}
	w.file = nil
	w.bw = nil
	cur.Checksum = w.digest.Sum64()
	return errors.Join(errs...)
}

// finish closes the last shard and returns every shard written.
func (w *shardWriter) finish() ([]ShardInfo, error) {
	if err := w.closeCurrent(); err != nil {
		return nil, err
	}
	return w.shards, nil
}

// abort closes the open shard without flushing buffered rows. Idempotent.
func (w *shardWriter) abort() error {
	if w.file == nil {
		return nil
	}
	var errs []error
	if w.zw != nil {
		errs = append(errs, w.zw.Close())
		w.zw = nil
	}
	errs = append(errs, w.file.Close())
	w.file = nil
	w.bw = nil
	return errors.Join(errs...)
}
