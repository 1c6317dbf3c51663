package sigpart

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
)

// PassStats summarizes one Hamming partitioning pass.
type PassStats struct {
	Index  int    // Mask index; the pass wrote hamming<Index>/
	Mask   uint64 // Mask applied to every signature
	Rows   uint64 // Total CSV rows emitted
	Counts []uint64
	Min    uint64 // Fewest rows in any partition
	Max    uint64 // Most rows in any partition
	Mean   float64
	Shards []ShardInfo
}

// IntMean returns the mean partition load rounded down.
func (s *PassStats) IntMean() uint64 {
	if len(s.Counts) == 0 {
		return 0
	}
	return s.Rows / uint64(len(s.Counts))
}

// runPass writes the CSV shards of one mask into dir.
// sigs must be the dataset's distinct signatures in ascending order.
func runPass(ctx context.Context, d *Dataset, sigs []Signature, index int, mask uint64, dir string, maxMatch int, cfg *config) (*PassStats, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create pass directory: %w", err)
	}
	w, err := newShardWriter(dir, cfg.maxEntries, cfg.compress)
	if err != nil {
		return nil, err
	}

	counts := make([]uint64, cfg.partitions)
	for i, sig := range sigs {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Join(err, w.abort())
			}
		}
		if maxMatch == 0 {
			continue
		}
		part := Partition(sig, mask, cfg.partitions)
		for _, p := range Sample(d.Points(sig), maxMatch, cfg.seed) {
			if err := w.writeRow(part, sig, p); err != nil {
				return nil, errors.Join(err, w.abort())
			}
			counts[part]++
		}
	}

	shards, err := w.finish()
	if err != nil {
		return nil, err
	}

	stats := &PassStats{
		Index:  index,
		Mask:   mask,
		Counts: counts,
		Shards: shards,
	}
	stats.summarize()

	cfg.logger.Info("hamming pass complete",
		"pass", index,
		"mask", fmt.Sprintf("%#016x", mask),
		"rows", stats.Rows,
		"shards", len(shards),
		"min", stats.Min,
		"max", stats.Max,
		"mean", stats.Mean)
	return stats, nil
}

func (s *PassStats) summarize() {
	if len(s.Counts) == 0 {
		return
	}
	s.Min = slices.Min(s.Counts)
	s.Max = slices.Max(s.Counts)
	var total uint64
	for _, c := range s.Counts {
		total += c
	}
	s.Rows = total
	s.Mean = float64(total) / float64(len(s.Counts))
}
