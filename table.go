package sstablekv

// table.go exposes TableBuilder and Table, the SST core's public surface,
// resolving Options defaults and delegating to internal/table for the
// on-disk format.

import (
	"errors"

	"github.com/aalhour/sstablekv/internal/logging"
	"github.com/aalhour/sstablekv/internal/table"
)

func resolveOptions(opts *Options) *Options {
	if opts == nil {
		opts = DefaultOptions()
	}
	out := *opts
	if out.Comparator == nil {
		out.Comparator = DefaultComparator()
	}
	if out.BlockSize <= 0 {
		out.BlockSize = DefaultOptions().BlockSize
	}
	if out.BlockRestartInterval <= 0 {
		out.BlockRestartInterval = DefaultOptions().BlockRestartInterval
	}
	return &out
}

func toInternalOptions(opts *Options) table.Options {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard
	}
	return table.Options{
		BlockSize:            opts.BlockSize,
		BlockRestartInterval: opts.BlockRestartInterval,
		Compression:          opts.Compression,
		Comparator:           opts.Comparator,
		FilterPolicy:         opts.FilterPolicy,
		ParanoidChecks:       opts.ParanoidChecks,
		Cache:                opts.BlockCache,
		Logger:               logger,
	}
}

// translateErr maps internal/table's sentinel errors onto this package's,
// so callers can use errors.Is against the public sentinels regardless of
// which layer detected the problem.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, table.ErrCorruption):
		return ErrCorruption
	case errors.Is(err, table.ErrInvalidArgument):
		return ErrInvalidArgument
	default:
		return err
	}
}

func toInternalReadOptions(ro *ReadOptions) table.ReadOptions {
	if ro == nil {
		ro = DefaultReadOptions()
	}
	return table.ReadOptions{
		VerifyChecksums: ro.VerifyChecksums,
		FillCache:       ro.FillCache,
	}
}

// TableBuilder assembles a stream of key-value pairs, presented in
// increasing key order, into a finished table file.
type TableBuilder struct {
	inner *table.Builder
	file  WritableFile
}

// NewTableBuilder returns a TableBuilder that writes a new table to file
// using opts. A nil opts uses DefaultOptions(); a nil Comparator within
// opts uses DefaultComparator().
func NewTableBuilder(file WritableFile, opts *Options) *TableBuilder {
	opts = resolveOptions(opts)
	return &TableBuilder{
		inner: table.NewBuilder(file, toInternalOptions(opts)),
		file:  file,
	}
}

// Add adds a key-value pair to the table. key must be greater than any
// previously added key under the table's comparator, or Add returns
// ErrInvalidArgument.
func (tb *TableBuilder) Add(key, value []byte) error {
	return translateErr(tb.inner.Add(key, value))
}

// NumEntries returns the number of key-value pairs added so far.
func (tb *TableBuilder) NumEntries() int {
	return tb.inner.NumEntries()
}

// FileSize returns the number of bytes flushed to the file so far.
func (tb *TableBuilder) FileSize() uint64 {
	return tb.inner.FileSize()
}

// Status returns the first error encountered by Add or Finish, if any.
func (tb *TableBuilder) Status() error {
	return translateErr(tb.inner.Status())
}

// Abandon discards the builder without writing a footer.
func (tb *TableBuilder) Abandon() {
	tb.inner.Abandon()
}

// Finish completes the table (flushing the final data block, filter,
// metaindex, index, and footer) and syncs the underlying file.
func (tb *TableBuilder) Finish() error {
	if err := tb.inner.Finish(); err != nil {
		return translateErr(err)
	}
	return tb.file.Sync()
}

// Table is a finished, opened table file ready for point lookups and
// range iteration.
type Table struct {
	inner *table.Table
	file  RandomAccessFile
}

// OpenTable opens and parses the footer, index, metaindex, and (if
// configured) filter block of a finished table file. A nil opts uses
// DefaultOptions(); a nil Comparator within opts uses DefaultComparator()
// and must match the comparator the table was built with.
func OpenTable(file RandomAccessFile, opts *Options) (*Table, error) {
	opts = resolveOptions(opts)
	size, err := file.Size()
	if err != nil {
		return nil, err
	}
	inner, err := table.Open(file, size, toInternalOptions(opts))
	if err != nil {
		return nil, translateErr(err)
	}
	return &Table{inner: inner, file: file}, nil
}

// Get looks up key and returns its value if present. found is false both
// when the key is absent and when the filter (if any) proves it cannot be
// present; err is non-nil only on I/O or corruption failures.
func (t *Table) Get(ro *ReadOptions, key []byte) (value []byte, found bool, err error) {
	value, found, err = t.inner.Get(toInternalReadOptions(ro), key)
	return value, found, translateErr(err)
}

// ApproximateOffsetOf returns an estimate of the file offset at which key
// would be found, for progress-reporting purposes.
func (t *Table) ApproximateOffsetOf(key []byte) uint64 {
	return t.inner.ApproximateOffsetOf(key)
}

// NewIterator returns an iterator over every entry in the table in key
// order (or reverse key order, under the table's comparator). The caller
// must call Close on the returned iterator when done.
func (t *Table) NewIterator(ro *ReadOptions) *Iterator {
	return &Iterator{inner: t.inner.NewIterator(toInternalReadOptions(ro))}
}

// Close closes the underlying file. It does not close any Iterator still
// open over the table, but such an Iterator reads data blocks it has not
// yet loaded through that same file.
func (t *Table) Close() error {
	return t.file.Close()
}

// Iterator walks a Table's entries in key order, seekably and
// bidirectionally.
type Iterator struct {
	inner *table.Iterator
}

// Valid returns true if the iterator is positioned at an entry.
func (it *Iterator) Valid() bool { return it.inner.Valid() }

// Key returns the current key. Only valid when Valid() is true. The
// returned slice is invalidated by the next call that moves the iterator.
func (it *Iterator) Key() []byte { return it.inner.Key() }

// Value returns the current value. Only valid when Valid() is true.
func (it *Iterator) Value() []byte { return it.inner.Value() }

// Status returns nil unless the iterator stopped due to corruption or I/O
// failure.
func (it *Iterator) Status() error { return translateErr(it.inner.Status()) }

// SeekToFirst positions the iterator at the first entry.
func (it *Iterator) SeekToFirst() { it.inner.SeekToFirst() }

// SeekToLast positions the iterator at the last entry.
func (it *Iterator) SeekToLast() { it.inner.SeekToLast() }

// Seek positions the iterator at the first entry with key >= target under
// the table's comparator.
func (it *Iterator) Seek(target []byte) { it.inner.Seek(target) }

// Next moves to the next entry. REQUIRES: Valid().
func (it *Iterator) Next() { it.inner.Next() }

// Prev moves to the previous entry. REQUIRES: Valid().
func (it *Iterator) Prev() { it.inner.Prev() }

// Close releases any cache handle held by the iterator.
func (it *Iterator) Close() error { return translateErr(it.inner.Close()) }
