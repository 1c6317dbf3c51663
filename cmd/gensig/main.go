// Gensig writes a synthetic signature file for exercising sigpart.
//
// Points are laid on a regular grid inside a bounding box. Signatures are
// drawn from a pool sized so each value recurs about -dups times.
//
// Usage:
//
//	go run ./cmd/gensig -stride 50 -start "[0, 0, 1000]" -finish "[29000, 21000, 26000]"
//
// Flags:
//
//	-stride    Grid spacing in voxels (default: 50)
//	-start     Inclusive box corner as a JSON array (default: [0,0,0])
//	-finish    Exclusive box corner as a JSON array (default: [1000,1000,1000])
//	-dups      Expected duplicates per signature (default: 4)
//	-seed      Random seed (default: 0)
//	-scramble  Pass pool values through murmur3 so every bit position varies
//	-out       Output file (default: signatures.b)
package main

import (
	"bufio"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"github.com/spaolacci/murmur3"
	"github.com/sugawarayuuta/sonnet"

	"github.com/tamirms/sigpart"
)

type config struct {
	stride   uint32
	start    [3]uint32
	finish   [3]uint32
	dups     uint64
	seed     uint64
	scramble bool
}

func main() {
	strideFlag := flag.Uint("stride", 50, "grid spacing in voxels")
	startFlag := flag.String("start", "[0,0,0]", "inclusive box corner [x,y,z]")
	finishFlag := flag.String("finish", "[1000,1000,1000]", "exclusive box corner [x,y,z]")
	dupsFlag := flag.Uint64("dups", 4, "expected duplicates per signature")
	seedFlag := flag.Uint64("seed", 0, "random seed")
	scrambleFlag := flag.Bool("scramble", false, "hash pool values with murmur3")
	outFlag := flag.String("out", "signatures.b", "output file")
	flag.Parse()

	cfg := config{
		stride:   uint32(*strideFlag),
		dups:     *dupsFlag,
		seed:     *seedFlag,
		scramble: *scrambleFlag,
	}
	var err error
	if cfg.start, err = parsePoint(*startFlag); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -start: %v\n", err)
		os.Exit(2)
	}
	if cfg.finish, err = parsePoint(*finishFlag); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -finish: %v\n", err)
		os.Exit(2)
	}

	n, err := generate(*outFlag, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gensig: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d records to %s\n", n, *outFlag)
}

func parsePoint(s string) ([3]uint32, error) {
	var vals []int64
	if err := sonnet.Unmarshal([]byte(s), &vals); err != nil {
		return [3]uint32{}, err
	}
	if len(vals) != 3 {
		return [3]uint32{}, fmt.Errorf("want 3 coordinates, got %d", len(vals))
	}
	var p [3]uint32
	for i, v := range vals {
		if v < 0 || v > math.MaxUint32 {
			return [3]uint32{}, fmt.Errorf("coordinate %d out of range", v)
		}
		p[i] = uint32(v)
	}
	return p, nil
}

// generate writes the grid to path and returns the record count.
func generate(path string, cfg config) (_ int, err error) {
	if cfg.stride == 0 {
		return 0, errors.New("stride must be positive")
	}
	if cfg.dups == 0 {
		return 0, errors.New("dups must be positive")
	}
	var cells uint64 = 1
	for i := range 3 {
		if cfg.finish[i] <= cfg.start[i] {
			return 0, fmt.Errorf("empty box on axis %d", i)
		}
		cells *= uint64((cfg.finish[i] - cfg.start[i]) / cfg.stride)
	}
	numVals := cells / cfg.dups
	if numVals == 0 {
		return 0, errors.New("box too small for the requested duplicate count")
	}
	incr := uint64(math.MaxInt64) / numVals

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriterSize(f, 1<<20)

	rng := rand.New(rand.NewPCG(cfg.seed, 0))
	var key [8]byte
	buf := make([]byte, 0, sigpart.RecordSize)
	n := 0
	for z := uint64(cfg.start[2]); z < uint64(cfg.finish[2]); z += uint64(cfg.stride) {
		for y := uint64(cfg.start[1]); y < uint64(cfg.finish[1]); y += uint64(cfg.stride) {
			for x := uint64(cfg.start[0]); x < uint64(cfg.finish[0]); x += uint64(cfg.stride) {
				v := rng.Uint64N(numVals + 1)
				sig := v * incr
				if cfg.scramble {
					binary.LittleEndian.PutUint64(key[:], v)
					sig = murmur3.Sum64WithSeed(key[:], uint32(cfg.seed))
				}
				rec := sigpart.Record{
					Point: sigpart.Point3D{X: uint32(x), Y: uint32(y), Z: uint32(z)},
					Sig:   sigpart.Signature(sig),
				}
				buf, _ = rec.AppendBinary(buf[:0])
				if _, err := w.Write(buf); err != nil {
					return n, err
				}
				n++
			}
		}
	}
	return n, w.Flush()
}
