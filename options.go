package sstablekv

// options.go implements SST-core configuration: the options a TableBuilder
// or Table reader recognizes. Database-wide concerns (write buffers,
// compaction, snapshots, merge operators, rate limiting) belong to the
// surrounding store, not this core, and are not represented here.

import (
	"github.com/aalhour/sstablekv/internal/cache"
	"github.com/aalhour/sstablekv/internal/compression"
	"github.com/aalhour/sstablekv/internal/filter"
	"github.com/aalhour/sstablekv/internal/logging"
)

// Logger is an alias for the logging.Logger interface, so callers can
// supply their own implementation without importing internal/logging.
type Logger = logging.Logger

// Cache is an alias for the block cache interface.
type Cache = cache.Cache

// CompressionType is an alias for the compression type.
type CompressionType = compression.Type

// Compression type constants recognized by the SST core.
const (
	CompressionNone   = compression.NoCompression
	CompressionSnappy = compression.SnappyCompression
	CompressionZstd   = compression.ZstdCompression
	CompressionLZ4    = compression.LZ4Compression
	CompressionLZ4HC  = compression.LZ4HCCompression
)

// Options configures how a TableBuilder writes a new table and how a Table
// reader interprets one. All fields are recognized by the core; there is
// no database-wide configuration surface here.
type Options struct {
	// Storage is a filesystem implementation carried with the options.
	// NewTableBuilder and OpenTable take already-open files and do not
	// read this field.
	Storage Storage

	// Comparator defines the order of keys in the table. If nil,
	// DefaultComparator() (bytewise) is used.
	Comparator Comparator

	// BlockSize is the target uncompressed size of a data block before it
	// is flushed. Default: 4096.
	BlockSize int

	// BlockRestartInterval is how often restart points are emitted within
	// a data block. Default: 16.
	BlockRestartInterval int

	// Compression selects the block compression algorithm. Default: None.
	Compression CompressionType

	// FilterPolicy builds the optional Bloom-style filter block. If nil,
	// no filter block is written and point lookups always load a block.
	FilterPolicy filter.Policy

	// ParanoidChecks verifies block checksums on every read, not only on
	// the index, filter, and metaindex blocks. Default: false.
	ParanoidChecks bool

	// BlockCache is the optional shared cache for decoded data blocks.
	// If nil, every block fetch reads and decodes from storage directly.
	BlockCache Cache

	// Logger receives diagnostic output from table building and reading.
	// If nil, a discarding logger is used.
	Logger Logger
}

// DefaultOptions returns Options with the core's defaults.
func DefaultOptions() *Options {
	return &Options{
		Storage:              nil, // not read by NewTableBuilder or OpenTable
		Comparator:           nil, // DefaultComparator() is used
		BlockSize:            4096,
		BlockRestartInterval: 16,
		Compression:          CompressionNone,
		FilterPolicy:         nil,
		ParanoidChecks:       false,
		BlockCache:           nil,
		Logger:               nil, // a discarding logger is used
	}
}

// ReadOptions configures a single read or iteration.
type ReadOptions struct {
	// VerifyChecksums enables checksum verification on data-block reads
	// regardless of Options.ParanoidChecks. Index, filter, and metaindex
	// blocks are always verified.
	VerifyChecksums bool

	// FillCache indicates whether blocks fetched for this read should be
	// inserted into the block cache.
	FillCache bool
}

// DefaultReadOptions returns ReadOptions with the core's defaults.
func DefaultReadOptions() *ReadOptions {
	return &ReadOptions{
		VerifyChecksums: true,
		FillCache:       true,
	}
}
