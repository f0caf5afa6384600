// Package table implements the on-disk SST file format: a builder that
// assembles sorted key/value pairs into data blocks, a filter block, a
// metaindex block, an index block and a footer, and a reader that opens a
// finished file and serves point lookups and range iteration over it.
//
// The format follows the classic LevelDB/RocksDB block-based table layout:
// an append-only sequence of compressed, checksummed blocks followed by a
// fixed-size footer locating the metaindex and index blocks.
package table

import (
	"errors"

	"github.com/aalhour/sstablekv/internal/cache"
	"github.com/aalhour/sstablekv/internal/compression"
	"github.com/aalhour/sstablekv/internal/filter"
	"github.com/aalhour/sstablekv/internal/logging"
)

// ErrCorruption is returned when on-disk data fails a structural or
// checksum check.
var ErrCorruption = errors.New("table: corruption")

// ErrInvalidArgument is returned when the caller violates an API
// precondition: a non-monotonic key, an operation after Finish/Close, or
// an unrecognized compression tag.
var ErrInvalidArgument = errors.New("table: invalid argument")

// Comparator is the ordering contract the table package needs: a total
// order with short-key shortening for index entries. The root package's
// Comparator satisfies this exactly.
type Comparator interface {
	Compare(a, b []byte) int
	Name() string
	FindShortestSeparator(a, b []byte) []byte
	FindShortSuccessor(a []byte) []byte
}

// Options configures a Builder or Table. Every field is recognized by this
// package; callers (typically the root package) resolve zero-value
// defaults before constructing a Builder or opening a Table.
type Options struct {
	BlockSize            int
	BlockRestartInterval int
	Compression          compression.Type
	Comparator           Comparator
	FilterPolicy         filter.Policy
	ParanoidChecks       bool
	Cache                cache.Cache
	Logger               logging.Logger
}

func (o Options) logger() logging.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.Discard
}

// ReadOptions configures a single Get or iteration.
type ReadOptions struct {
	VerifyChecksums bool
	FillCache       bool
}

// RandomAccessFile is the narrow read surface Table needs from an open
// table file.
type RandomAccessFile interface {
	ReadAt(p []byte, off int64) (int, error)
}

// bytewiseCmp orders raw bytes; used internally for the metaindex block,
// whose keys are literal meta-section names rather than user keys.
type bytewiseCmp struct{}

// metaCmp is the shared bytewiseCmp instance used to order metaindex keys.
var metaCmp = bytewiseCmp{}

func (bytewiseCmp) Compare(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}
