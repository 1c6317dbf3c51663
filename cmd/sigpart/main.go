// Sigpart reads a signature file and writes the Hamming partition shards,
// super-block files and manifest used by the similarity mining pipeline.
//
// Usage:
//
//	sigpart [flags] <signature file> <max match> <super block size>
//
// Flags:
//
//	-out            Output root (default: data_out)
//	-workers        Parallel writers (default: 1)
//	-zstd           Write zstd-compressed CSV shards
//	-allow-partial  Drop a trailing partial record instead of failing
//	-seed           Mask and sampling seed (default: 0)
//	-partitions     Buckets per partitioning (default: 4000)
//	-max-entries    Rows per CSV shard (default: 1000000)
//	-verify         Re-read every output and check its checksum
//	-v              Debug logging
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/tamirms/sigpart"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file> <#max match> <super block size>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	outFlag := flag.String("out", "data_out", "output root directory")
	workersFlag := flag.Int("workers", 1, "number of parallel writers")
	zstdFlag := flag.Bool("zstd", false, "zstd-compress CSV shards")
	partialFlag := flag.Bool("allow-partial", false, "drop a trailing partial record instead of failing")
	seedFlag := flag.Uint64("seed", sigpart.DefaultSeed, "mask and sampling seed")
	partitionsFlag := flag.Uint("partitions", sigpart.DefaultPartitions, "buckets per partitioning")
	maxEntriesFlag := flag.Int("max-entries", sigpart.DefaultMaxEntries, "rows per CSV shard")
	verifyFlag := flag.Bool("verify", false, "verify output checksums after writing")
	verboseFlag := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 3 {
		usage()
		os.Exit(2)
	}
	path := flag.Arg(0)
	maxMatch, err := strconv.Atoi(flag.Arg(1))
	if err != nil || maxMatch < 0 {
		fmt.Fprintf(os.Stderr, "invalid max match %q\n", flag.Arg(1))
		os.Exit(2)
	}
	blockSize, err := strconv.ParseUint(flag.Arg(2), 10, 32)
	if err != nil || blockSize == 0 {
		fmt.Fprintf(os.Stderr, "invalid super block size %q\n", flag.Arg(2))
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []sigpart.Option{
		sigpart.WithLogger(logger),
		sigpart.WithWorkers(*workersFlag),
		sigpart.WithSeed(*seedFlag),
		sigpart.WithPartitions(uint32(*partitionsFlag)),
		sigpart.WithMaxEntries(*maxEntriesFlag),
	}
	if *zstdFlag {
		opts = append(opts, sigpart.WithCompressedShards())
	}
	if *partialFlag {
		opts = append(opts, sigpart.WithAllowPartialRecord())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, path, maxMatch, uint32(blockSize), *outFlag, *verifyFlag, opts); err != nil {
		logger.Error("sigpart failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, path string, maxMatch int, blockSize uint32, out string, verify bool, opts []sigpart.Option) error {
	d, err := sigpart.LoadFile(ctx, path, blockSize, opts...)
	if err != nil {
		return err
	}
	// Bin distribution per mask, printed as each pass finishes: min, max,
	// mean rows per partition
	printPass := sigpart.WithPassHook(func(p *sigpart.PassStats) {
		fmt.Printf("Ham-%d: %d, %d, %d\n", p.Index, p.Min, p.Max, p.IntMean())
	})
	res, err := sigpart.Process(ctx, d, out, maxMatch, append(opts, printPass)...)
	if err != nil {
		return err
	}

	if verify {
		if err := sigpart.Verify(out); err != nil {
			return err
		}
		logger.Info("outputs verified", "files", len(res.Manifest.Checksums))
	}
	return nil
}
