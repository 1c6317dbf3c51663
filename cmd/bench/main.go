// Bench measures sigpart load and partitioning throughput and peak memory.
//
// Usage:
//
//	go run ./cmd/bench -records 10000000 -pool 2000000 -workers 4
//
// Flags:
//
//	-records    Number of records to generate (default: 10,000,000)
//	-pool       Distinct signatures to draw from (default: records/4)
//	-max-match  Duplicate cap per signature (default: 10)
//	-block      Super-block edge length (default: 512)
//	-extent     Coordinates are drawn from [0, extent) (default: 8192)
//	-workers    Parallel writers (default: 1)
//	-zstd       Compress CSV shards
package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/tamirms/sigpart"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// writeInput writes n random records drawing signatures from a pool of
// murmur3-hashed indices.
func writeInput(path string, n, pool int, extent uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriterSize(f, 1<<20)
	rng := mrand.New(mrand.NewPCG(1, 2))
	var key [8]byte
	buf := make([]byte, 0, sigpart.RecordSize)
	for range n {
		binary.LittleEndian.PutUint64(key[:], rng.Uint64N(uint64(pool)))
		rec := sigpart.Record{
			Point: sigpart.Point3D{X: rng.Uint32N(extent), Y: rng.Uint32N(extent), Z: rng.Uint32N(extent)},
			Sig:   sigpart.Signature(murmur3.Sum64(key[:])),
		}
		buf, _ = rec.AppendBinary(buf[:0])
		if _, err := w.Write(buf); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func main() {
	recordsFlag := flag.Int("records", 10_000_000, "number of records")
	poolFlag := flag.Int("pool", 0, "distinct signatures (0 = records/4)")
	maxMatchFlag := flag.Int("max-match", 10, "duplicate cap per signature")
	blockFlag := flag.Uint("block", 512, "super-block edge length")
	extentFlag := flag.Uint("extent", 8192, "coordinate extent")
	workersFlag := flag.Int("workers", 1, "number of parallel writers")
	zstdFlag := flag.Bool("zstd", false, "compress CSV shards")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (process phase only)")
	memprofile := flag.String("memprofile", "", "write memory profile to file (after process phase)")
	flag.Parse()

	numRecords := *recordsFlag
	pool := *poolFlag
	if pool <= 0 {
		pool = max(numRecords/4, 1)
	}

	tmpDir, err := os.MkdirTemp("", "sigpart-bench-")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	inputPath := filepath.Join(tmpDir, "signatures.b")
	outDir := filepath.Join(tmpDir, "data_out")

	fmt.Println("Generating records...")
	genStart := time.Now()
	if err := writeInput(inputPath, numRecords, pool, uint32(*extentFlag)); err != nil {
		fmt.Printf("Generate failed: %v\n", err)
		return
	}
	genDuration := time.Since(genStart)

	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)
	baselineRSS := getMaxRSS()

	// 10ms sampling for peak memory (both heap and RSS).
	// Uses runtime/metrics instead of ReadMemStats to avoid stop-the-world pauses.
	var peakAlloc atomic.Uint64
	var peakRSS atomic.Uint64
	peakAlloc.Store(baseline.Alloc)
	peakRSS.Store(baselineRSS)
	done := make(chan struct{})
	go func() {
		samples := []metrics.Sample{
			{Name: "/memory/classes/heap/objects:bytes"},
		}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				heapBytes := samples[0].Value.Uint64()
				for {
					old := peakAlloc.Load()
					if heapBytes <= old || peakAlloc.CompareAndSwap(old, heapBytes) {
						break
					}
				}
				rss := getMaxRSS()
				for {
					old := peakRSS.Load()
					if rss <= old || peakRSS.CompareAndSwap(old, rss) {
						break
					}
				}
			}
		}
	}()

	ctx := context.Background()

	fmt.Println("Loading...")
	loadStart := time.Now()
	d, err := sigpart.LoadFile(ctx, inputPath, uint32(*blockFlag))
	if err != nil {
		close(done)
		fmt.Printf("Load failed: %v\n", err)
		return
	}
	loadDuration := time.Since(loadStart)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
	}

	fmt.Println("Partitioning...")
	opts := []sigpart.Option{sigpart.WithWorkers(*workersFlag)}
	if *zstdFlag {
		opts = append(opts, sigpart.WithCompressedShards())
	}
	processStart := time.Now()
	res, err := sigpart.Process(ctx, d, outDir, *maxMatchFlag, opts...)
	processDuration := time.Since(processStart)

	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}

	close(done)

	var final runtime.MemStats
	runtime.ReadMemStats(&final)
	if final.Alloc > peakAlloc.Load() {
		peakAlloc.Store(final.Alloc)
	}
	if finalRSS := getMaxRSS(); finalRSS > peakRSS.Load() {
		peakRSS.Store(finalRSS)
	}
	peakHeapMem := peakAlloc.Load() - baseline.Alloc
	peakRSSMem := peakRSS.Load() - baselineRSS

	if err != nil {
		fmt.Printf("Process failed: %v\n", err)
		return
	}

	var rows uint64
	for _, p := range res.Passes {
		rows += p.Rows
	}

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦════════════════╗\n")
	fmt.Printf("║ Metric              ║ Value          ║\n")
	fmt.Printf("╠═════════════════════╬════════════════╣\n")
	fmt.Printf("║ Records             ║ %14d ║\n", res.Records)
	fmt.Printf("║ Signatures          ║ %14d ║\n", d.NumSignatures())
	fmt.Printf("║ Super-blocks        ║ %14d ║\n", res.Blocks)
	fmt.Printf("║ CSV rows (all masks)║ %14d ║\n", rows)
	fmt.Printf("║ Generate time       ║ %10.2f sec ║\n", genDuration.Seconds())
	fmt.Printf("║ Load time           ║ %10.2f sec ║\n", loadDuration.Seconds())
	fmt.Printf("║ Process time        ║ %10.2f sec ║\n", processDuration.Seconds())
	fmt.Printf("║ Load throughput     ║ %8.2f M/sec ║\n", float64(numRecords)/loadDuration.Seconds()/1_000_000)
	fmt.Printf("║ Row throughput      ║ %8.2f M/sec ║\n", float64(rows)/processDuration.Seconds()/1_000_000)
	fmt.Printf("║ Bytes per record    ║ %10.1f B   ║\n", float64(peakHeapMem)/float64(max(numRecords, 1)))
	fmt.Printf("║ Peak heap memory    ║ %10.1f MB  ║\n", float64(peakHeapMem)/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %10.1f MB  ║\n", float64(peakRSSMem)/1_000_000)
	fmt.Printf("╚═════════════════════╩════════════════╝\n")
}
