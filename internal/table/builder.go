package table

import (
	"io"

	"github.com/aalhour/sstablekv/internal/block"
	"github.com/aalhour/sstablekv/internal/checksum"
	"github.com/aalhour/sstablekv/internal/compression"
	"github.com/aalhour/sstablekv/internal/encoding"
	"github.com/aalhour/sstablekv/internal/filter"
	"github.com/aalhour/sstablekv/internal/logging"
)

// Builder assembles a stream of key-value pairs, presented in increasing
// key order, into a finished table file.
//
// A table file is an append-only sequence of data blocks, an optional
// filter block, a metaindex block, an index block, and a fixed footer.
// Each block (other than the footer) is followed by a 5-byte trailer: a
// 1-byte compression tag and a 4-byte masked CRC-32C covering the
// compressed payload and the tag.
type Builder struct {
	w    io.Writer
	opts Options
	cmp  Comparator

	offset     uint64
	numEntries int
	closed     bool
	err        error

	dataBlock   *block.Builder
	filterBlock *filter.BlockBuilder
	indexBlock  *block.Builder
	metaindex   *block.Builder

	lastKey []byte

	// pendingIndexEntry is true once a data block has been flushed and its
	// handle is waiting to be added to the index under a separator key
	// computed against the next key added.
	pendingIndexEntry bool
	pendingHandle     block.Handle
}

// NewBuilder returns a Builder that writes a new table to w using opts.
// opts must have a non-nil Comparator.
func NewBuilder(w io.Writer, opts Options) *Builder {
	cmp := opts.Comparator
	b := &Builder{
		w:          w,
		opts:       opts,
		cmp:        cmp,
		dataBlock:  block.NewBuilder(cmp, opts.BlockRestartInterval),
		indexBlock: block.NewBuilder(cmp, 1), // every index entry is a restart point
		metaindex:  block.NewBuilder(metaCmp, 1),
	}
	if opts.FilterPolicy != nil {
		b.filterBlock = filter.NewBlockBuilder(opts.FilterPolicy)
		b.filterBlock.StartBlock(0)
	}
	if opts.Compression > compression.ZstdCompression {
		b.err = ErrInvalidArgument
	}
	return b
}

// Add adds a key-value pair to the table. key must be greater than any
// previously added key under the table's comparator.
func (b *Builder) Add(key, value []byte) error {
	if b.closed {
		return ErrInvalidArgument
	}
	if b.err != nil {
		return b.err
	}
	if b.numEntries > 0 && b.cmp.Compare(key, b.lastKey) <= 0 {
		return ErrInvalidArgument
	}

	if b.pendingIndexEntry {
		sep := b.cmp.FindShortestSeparator(b.lastKey, key)
		b.indexBlock.Add(sep, b.pendingHandle.EncodeToSlice())
		b.pendingIndexEntry = false
	}

	if b.filterBlock != nil {
		b.filterBlock.AddKey(key)
	}

	b.lastKey = append(b.lastKey[:0], key...)
	b.numEntries++
	b.dataBlock.Add(key, value)

	if b.dataBlock.CurrentSizeEstimate() >= b.opts.BlockSize {
		b.flushDataBlock()
	}
	return b.err
}

// flushDataBlock writes the current data block, if non-empty, and arranges
// for its handle to be added to the index block once the separator key for
// the next added key (or the successor key at Finish) is known.
func (b *Builder) flushDataBlock() {
	if b.dataBlock.Empty() {
		return
	}
	handle, err := b.writeBlock(b.dataBlock)
	if err != nil {
		b.err = err
		return
	}
	b.pendingHandle = handle
	b.pendingIndexEntry = true
	b.dataBlock.Reset()
	if b.filterBlock != nil {
		b.filterBlock.StartBlock(b.offset)
	}
}

// writeBlock compresses (if it shrinks the block by at least 12.5%),
// appends the trailer, and writes content. It returns the handle locating
// the block and resets nothing in content; the caller owns that.
func (b *Builder) writeBlock(content *block.Builder) (block.Handle, error) {
	raw := content.Finish()
	return b.writeRawBlock(raw, b.opts.Compression)
}

func (b *Builder) writeRawBlock(raw []byte, typ compression.Type) (block.Handle, error) {
	payload := raw
	tag := compression.NoCompression

	if typ != compression.NoCompression {
		compressed, err := compression.Compress(typ, raw)
		if err == nil && compressed != nil && len(compressed) <= len(raw)-len(raw)/8 {
			payload = compressed
			tag = typ
		}
	}

	handle := block.Handle{Offset: b.offset, Size: uint64(len(payload))}

	trailer := make([]byte, block.BlockTrailerSize)
	trailer[0] = byte(tag)
	crc := checksum.Value(payload)
	crc = checksum.Extend(crc, trailer[:1])
	encoding.EncodeFixed32(trailer[1:], checksum.Mask(crc))

	if _, err := b.w.Write(payload); err != nil {
		return block.Handle{}, err
	}
	if _, err := b.w.Write(trailer); err != nil {
		return block.Handle{}, err
	}
	b.offset += uint64(len(payload)) + uint64(len(trailer))

	return handle, nil
}

// NumEntries returns the number of key-value pairs added so far.
func (b *Builder) NumEntries() int {
	return b.numEntries
}

// FileSize returns the number of bytes written to w so far. It does not
// include blocks still buffered (the current data block, index, filter,
// metaindex, footer) until Finish is called.
func (b *Builder) FileSize() uint64 {
	return b.offset
}

// Status returns the first error encountered by Add or Finish, if any.
func (b *Builder) Status() error {
	return b.err
}

// Abandon discards the builder without writing a footer. It is used when
// the caller decides not to keep a partially written table; the
// already-written bytes in w are not truncated, only Builder state is
// marked closed so further calls fail.
func (b *Builder) Abandon() {
	b.closed = true
}

// Finish completes the table: flushes any buffered data block, writes the
// filter block, the metaindex block, the index block, and the footer.
//
// The metaindex block is built and written before the final index entry is
// added: metaindex only needs the filter block's handle, which is already
// known once the filter is flushed, while the index's final entry needs a
// successor key computed from the last added key and is added afterward.
func (b *Builder) Finish() error {
	if b.closed {
		return ErrInvalidArgument
	}
	if b.err != nil {
		return b.err
	}
	b.closed = true

	b.flushDataBlock()
	if b.err != nil {
		return b.err
	}

	var filterHandle block.Handle
	haveFilter := false
	if b.filterBlock != nil {
		filterContent := b.filterBlock.Finish()
		var err error
		filterHandle, err = b.writeRawBlock(filterContent, compression.NoCompression)
		if err != nil {
			b.err = err
			return err
		}
		haveFilter = true
	}

	if haveFilter {
		metaKey := []byte("filter." + b.opts.FilterPolicy.Name())
		b.metaindex.Add(metaKey, filterHandle.EncodeToSlice())
	}
	metaindexHandle, err := b.writeBlock(b.metaindex)
	if err != nil {
		b.err = err
		return err
	}

	if b.pendingIndexEntry {
		succ := b.cmp.FindShortSuccessor(b.lastKey)
		b.indexBlock.Add(succ, b.pendingHandle.EncodeToSlice())
		b.pendingIndexEntry = false
	}
	indexHandle, err := b.writeBlock(b.indexBlock)
	if err != nil {
		b.err = err
		return err
	}

	footer := block.Footer{MetaindexHandle: metaindexHandle, IndexHandle: indexHandle}
	if _, err := b.w.Write(footer.EncodeTo()); err != nil {
		b.err = err
		return err
	}
	b.offset += uint64(block.EncodedLength)

	b.opts.logger().Debugf("%sfinished table: %d entries, %d bytes", logging.NSTable, b.numEntries, b.offset)
	return nil
}
