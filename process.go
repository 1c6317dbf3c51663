package sigpart

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	sperrors "github.com/tamirms/sigpart/errors"
)

// Result describes a completed run.
type Result struct {
	Passes   []*PassStats // One per mask, in mask order
	Blocks   int          // Super-block files written
	Records  int          // Records loaded
	Manifest *Manifest
}

// Process writes every output of a run under outDir:
//
//	hamming<i>/sigs_<n>   CSV shards of mask i
//	blocks/<xb>_<yb>_<zb> super-block record files
//	info.json             manifest
//
// maxMatch caps the rows emitted per distinct signature in each pass; the
// super-block files always contain every record.
//
// Usage:
//
//	d, err := sigpart.LoadFile(ctx, "signatures.b", 512)
//	if err != nil { return err }
//	res, err := sigpart.Process(ctx, d, "data_out", 100)
//	if err != nil { return err }
//	for _, p := range res.Passes {
//	    fmt.Printf("Ham-%d: %d, %d, %d\n", p.Index, p.Min, p.Max, p.IntMean())
//	}
//
// Passes run sequentially unless WithWorkers(n) is set, in which case up to
// n passes (then n block files) are written concurrently. Output bytes do
// not depend on the worker count. Outputs of an earlier run under outDir
// (its manifest, hamming<i>/ trees and blocks/) are removed first, so a
// rerun replaces them. Any I/O error aborts the run; files already written
// are left in place without a manifest.
func Process(ctx context.Context, d *Dataset, outDir string, maxMatch int, opts ...Option) (*Result, error) {
	if maxMatch < 0 {
		return nil, sperrors.ErrInvalidMaxMatch
	}
	cfg := newConfig(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	masks, err := GenerateMasks(cfg.numBits, cfg.hashBits, cfg.seed)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if err := clearOutputs(outDir); err != nil {
		return nil, err
	}

	// Build the sorted key caches before any goroutine reads them.
	sigs := d.Signatures()
	blocks := d.Blocks()

	passes := make([]*PassStats, len(masks))
	var hookMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i, mask := range masks {
		g.Go(func() error {
			stats, err := runPass(gctx, d, sigs, i, mask, filepath.Join(outDir, PassDir(i)), maxMatch, cfg)
			if err != nil {
				return fmt.Errorf("pass %d: %w", i, err)
			}
			passes[i] = stats
			if cfg.onPass != nil {
				hookMu.Lock()
				cfg.onPass(stats)
				hookMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	checksums := make(map[string]uint64)
	for _, p := range passes {
		for _, s := range p.Shards {
			checksums[path.Join(PassDir(p.Index), s.Name)] = s.Checksum
		}
	}

	blockSums, err := writeBlocks(ctx, d, blocks, filepath.Join(outDir, BlocksDir), cfg)
	if err != nil {
		return nil, err
	}
	for name, sum := range blockSums {
		checksums[path.Join(BlocksDir, name)] = sum
	}

	m := &Manifest{
		Masks:      masks,
		BlockSize:  d.BlockSize(),
		NumBits:    cfg.numBits,
		HashBits:   cfg.hashBits,
		Partitions: cfg.partitions,
		MaxMatch:   maxMatch,
		Seed:       cfg.seed,
		NumRecords: uint64(d.Len()),
		SourceHash: d.SourceHash(),
		Checksums:  checksums,
	}
	if err := WriteManifest(filepath.Join(outDir, ManifestName), m); err != nil {
		return nil, err
	}

	cfg.logger.Info("run complete",
		"out", outDir,
		"masks", len(masks),
		"blocks", len(blocks),
		"records", d.Len())

	return &Result{
		Passes:   passes,
		Blocks:   len(blocks),
		Records:  d.Len(),
		Manifest: m,
	}, nil
}

// clearOutputs removes the manifest, every hamming<i> directory and the
// blocks directory under outDir. Other entries are left alone.
func clearOutputs(outDir string) error {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	for _, e := range entries {
		if e.Name() != ManifestName && !isOutputDir(e.Name()) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(outDir, e.Name())); err != nil {
			return fmt.Errorf("remove previous output %s: %w", e.Name(), err)
		}
	}
	return nil
}

// isOutputDir reports whether name is BlocksDir or a PassDir name.
func isOutputDir(name string) bool {
	if name == BlocksDir {
		return true
	}
	digits, ok := strings.CutPrefix(name, passDirPrefix)
	if !ok || digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// writeBlocks writes one file per super-block into dir and returns each
// file's checksum keyed by file name.
func writeBlocks(ctx context.Context, d *Dataset, blocks []BlockKey, dir string, cfg *config) (map[string]uint64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blocks directory: %w", err)
	}

	var mu sync.Mutex
	sums := make(map[string]uint64, len(blocks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for _, key := range blocks {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			name := key.String()
			sum, err := writeBlockFile(filepath.Join(dir, name), d, key)
			if err != nil {
				return fmt.Errorf("block %s: %w", name, err)
			}
			mu.Lock()
			sums[name] = sum
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg.logger.Debug("super-blocks written", "dir", dir, "blocks", len(blocks))
	return sums, nil
}
