package sigpart

import (
	"log/slog"

	sperrors "github.com/tamirms/sigpart/errors"
)

const (
	// DefaultNumBits is the signature bit width covered by the masks.
	DefaultNumBits = 64

	// DefaultHashBits is the number of signature bits each mask selects.
	DefaultHashBits = 16

	// DefaultPartitions is the bucket count of every Hamming partitioning.
	DefaultPartitions = 4000

	// DefaultMaxEntries is the row limit of one CSV shard.
	DefaultMaxEntries = 1_000_000

	// DefaultSeed drives mask shuffling and duplicate sampling.
	DefaultSeed = 0
)

// Option is a functional option for configuring Load and Process.
type Option func(*config)

type config struct {
	seed         uint64
	numBits      int
	hashBits     int
	partitions   uint32
	maxEntries   int
	workers      int
	compress     bool
	allowPartial bool
	logger       *slog.Logger
	onPass       func(*PassStats)
}

func defaultConfig() *config {
	return &config{
		seed:       DefaultSeed,
		numBits:    DefaultNumBits,
		hashBits:   DefaultHashBits,
		partitions: DefaultPartitions,
		maxEntries: DefaultMaxEntries,
		workers:    1, // Single-threaded unless WithWorkers says otherwise
		logger:     slog.New(slog.DiscardHandler),
	}
}

func newConfig(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}
	return cfg
}

// validate checks the parameters used by Process.
func (c *config) validate() error {
	if c.numBits <= 0 || c.numBits > 64 || c.numBits%8 != 0 {
		return sperrors.ErrInvalidNumBits
	}
	if c.hashBits <= 0 || c.numBits%c.hashBits != 0 {
		return sperrors.ErrInvalidHashBits
	}
	if c.partitions == 0 {
		return sperrors.ErrInvalidPartitions
	}
	if c.maxEntries <= 0 {
		return sperrors.ErrInvalidMaxEntries
	}
	return nil
}

// WithSeed sets the seed for mask generation and duplicate sampling.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithNumBits sets the signature bit width the masks cover.
// Must be a multiple of 8 in (0, 64].
func WithNumBits(n int) Option {
	return func(c *config) {
		c.numBits = n
	}
}

// WithHashBits sets the number of bits per mask. It must divide the
// signature bit width; the mask count is numBits / hashBits.
func WithHashBits(n int) Option {
	return func(c *config) {
		c.hashBits = n
	}
}

// WithPartitions sets the bucket count per Hamming partitioning.
func WithPartitions(n uint32) Option {
	return func(c *config) {
		c.partitions = n
	}
}

// WithMaxEntries sets the maximum number of rows per CSV shard.
func WithMaxEntries(n int) Option {
	return func(c *config) {
		c.maxEntries = n
	}
}

// WithWorkers sets the number of goroutines used to write mask passes and
// super-block files. Output is identical for every worker count.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithCompressedShards writes CSV shards zstd-compressed with a ".zst" suffix.
func WithCompressedShards() Option {
	return func(c *config) {
		c.compress = true
	}
}

// WithPassHook registers fn to be called with the statistics of each mask
// pass as soon as its shards are closed, before later passes, super-block
// files and the manifest are written. Calls are serialized; with
// WithWorkers(n > 1) they arrive in completion order rather than mask order.
func WithPassHook(fn func(*PassStats)) Option {
	return func(c *config) {
		c.onPass = fn
	}
}

// WithAllowPartialRecord makes the loader drop a trailing partial record
// with a warning instead of failing with ErrTruncatedInput.
func WithAllowPartialRecord() Option {
	return func(c *config) {
		c.allowPartial = true
	}
}

// WithLogger sets the structured logger. The default discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}
