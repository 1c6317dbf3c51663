// Package errors defines all exported error sentinels for the sigpart module.
//
// Both the top-level sigpart package and its commands import from here,
// so errors.Is checks work across package boundaries.
package errors

import "errors"

// Configuration errors
var (
	ErrInvalidBlockSize  = errors.New("sigpart: super-block size must be positive")
	ErrInvalidMaxMatch   = errors.New("sigpart: max match must not be negative")
	ErrInvalidNumBits    = errors.New("sigpart: signature bit width must be a positive multiple of 8 and at most 64")
	ErrInvalidHashBits   = errors.New("sigpart: hash bits must be positive and divide the signature bit width")
	ErrInvalidPartitions = errors.New("sigpart: partition count must be positive")
	ErrInvalidMaxEntries = errors.New("sigpart: shard row limit must be positive")
)

// Load errors
var (
	ErrTruncatedInput = errors.New("sigpart: input ends with a partial record")
	ErrTooManyRecords = errors.New("sigpart: record count exceeds maximum (2^32-1)")
)

// Reader errors
var (
	ErrInvalidManifest = errors.New("sigpart: manifest is malformed")
	ErrTruncatedBlock  = errors.New("sigpart: block file size is not a multiple of the record size")
	ErrPointNotFound   = errors.New("sigpart: no stored point within distance")
	ErrChecksumFailed  = errors.New("sigpart: file checksum verification failed")
	ErrNoChecksums     = errors.New("sigpart: manifest lists no checksums to verify")
	ErrUnlistedFile    = errors.New("sigpart: output file is not listed in the manifest")
)
