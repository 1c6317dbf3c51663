// Package sigpart reorganizes a flat stream of spatial signature records
// into static files for similarity mining.
//
// Each input record is a voxel coordinate and a 64-bit patch signature:
//
//	[x:u32][y:u32][z:u32][signature:u64]   little-endian, 20 bytes
//
// A run produces three outputs:
//
//   - hamming<i>/sigs_<n>: for every mask i, CSV rows
//     "partition,signature,x,y,z" where partition is the MurmurHash3
//     finalizer of (signature AND mask i) modulo the partition count.
//     Signatures recurring more than maxMatch times are sampled down.
//   - blocks/<xb>_<yb>_<zb>: every record, grouped by super-block.
//   - info.json: the masks and parameters needed to interpret the above.
//
// Masks are bit-disjoint, cover the whole signature width, and are derived
// from an explicit seed, so a rerun with the same input reproduces every
// output byte.
//
// # Basic Usage
//
//	d, err := sigpart.LoadFile(ctx, "signatures.b", 512)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := sigpart.Process(ctx, d, "data_out", 100)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Reading a run back:
//
//	store, err := sigpart.OpenStore("data_out")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rec, err := store.SignatureAt(sigpart.Point3D{X: 100, Y: 200, Z: 300}, 100)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	parts := store.PartitionsFor(rec.Sig)
//
// # Package Structure
//
//   - Loading: loader.go (Load, LoadFile), record.go, dataset.go
//   - Partitioning: mask.go (GenerateMasks), partition.go (Partition, Sample)
//   - Output: process.go (Process), pass.go, shard_writer.go, block_writer.go, manifest.go
//   - Reading: lookup.go (OpenBlock, OpenStore), verify.go (Verify)
//   - Configuration: options.go (Option, With* functions)
//   - Platform: fallocate_*.go, fadvise_*.go, prefault_*.go
package sigpart
