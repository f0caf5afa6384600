package table

import (
	"github.com/aalhour/sstablekv/internal/block"
	"github.com/aalhour/sstablekv/internal/cache"
	"github.com/aalhour/sstablekv/internal/checksum"
	"github.com/aalhour/sstablekv/internal/compression"
	"github.com/aalhour/sstablekv/internal/encoding"
	"github.com/aalhour/sstablekv/internal/filter"
	"github.com/aalhour/sstablekv/internal/logging"
)

// Table is a finished, opened table file ready for point lookups and
// iteration. The index, metaindex, and filter blocks are read once at
// Open and held for the table's lifetime; only data blocks flow through
// the optional block cache.
type Table struct {
	file RandomAccessFile
	size int64
	opts Options
	cmp  Comparator

	indexBlock *block.Block
	filter     *filter.BlockReader
	cacheID    uint64
}

// Open parses the footer, index, metaindex, and (if configured) filter
// block of a finished table file of the given size.
func Open(f RandomAccessFile, size int64, opts Options) (*Table, error) {
	if size < int64(block.EncodedLength) {
		return nil, ErrCorruption
	}

	footerBuf := make([]byte, block.EncodedLength)
	if _, err := f.ReadAt(footerBuf, size-int64(block.EncodedLength)); err != nil {
		return nil, err
	}
	footer, err := block.DecodeFooter(footerBuf)
	if err != nil {
		return nil, ErrCorruption
	}

	t := &Table{
		file: f,
		size: size,
		opts: opts,
		cmp:  opts.Comparator,
	}

	t.indexBlock, err = t.readBlockFromFile(footer.IndexHandle, true)
	if err != nil {
		return nil, err
	}

	metaBlock, err := t.readBlockFromFile(footer.MetaindexHandle, true)
	if err != nil {
		return nil, err
	}

	if opts.FilterPolicy != nil {
		metaKey := []byte("filter." + opts.FilterPolicy.Name())
		mit := metaBlock.NewIterator(metaCmp)
		mit.Seek(metaKey)
		if mit.Valid() && metaCmp.Compare(mit.Key(), metaKey) == 0 {
			fh, err := block.DecodeHandleFrom(mit.Value())
			if err != nil {
				return nil, ErrCorruption
			}
			filterBlock, err := t.readBlockFromFile(fh, true)
			if err != nil {
				return nil, err
			}
			t.filter = filter.NewBlockReader(opts.FilterPolicy, filterBlock.Data())
		}
	}

	if opts.Cache != nil {
		t.cacheID = opts.Cache.NewID()
	}

	return t, nil
}

// readBlockFromFile reads, checksum-verifies, and decompresses the block
// at handle directly from the underlying file, bypassing the cache. Used
// for the structural blocks (index, metaindex, filter) read once at Open.
func (t *Table) readBlockFromFile(handle block.Handle, verify bool) (*block.Block, error) {
	buf := make([]byte, handle.Size+block.BlockTrailerSize)
	if _, err := t.file.ReadAt(buf, int64(handle.Offset)); err != nil {
		return nil, err
	}

	payload := buf[:handle.Size]
	trailer := buf[handle.Size:]

	if verify || t.opts.ParanoidChecks {
		crc := checksum.Value(payload)
		crc = checksum.Extend(crc, trailer[:1])
		if checksum.Unmask(encoding.DecodeFixed32(trailer[1:])) != crc {
			t.opts.logger().Errorf("%schecksum mismatch at offset %d, size %d", logging.NSBlock, handle.Offset, handle.Size)
			return nil, ErrCorruption
		}
	}

	tag := compression.Type(trailer[0])
	var data []byte
	if tag == compression.NoCompression {
		data = payload
	} else {
		decoded, err := compression.Decompress(tag, payload)
		if err != nil {
			t.opts.logger().Errorf("%sdecompress block at offset %d: %v", logging.NSBlock, handle.Offset, err)
			return nil, ErrCorruption
		}
		data = decoded
	}

	return block.NewBlock(data)
}

// readDataBlock fetches a data block, consulting the cache if one is
// configured. It returns the parsed block and, if the block came from or
// was inserted into a cache, the cache handle the caller must Release
// once done with the block's bytes.
func (t *Table) readDataBlock(handle block.Handle, ro ReadOptions) (*block.Block, *cache.Handle, error) {
	if t.opts.Cache == nil {
		blk, err := t.readBlockFromFile(handle, ro.VerifyChecksums || t.opts.ParanoidChecks)
		return blk, nil, err
	}

	key := cache.CacheKey{FileNumber: t.cacheID, BlockOffset: handle.Offset}
	if ch := t.opts.Cache.Lookup(key); ch != nil {
		blk, err := block.NewBlock(ch.Value())
		if err != nil {
			t.opts.Cache.Release(ch)
			return nil, nil, err
		}
		return blk, ch, nil
	}

	blk, err := t.readBlockFromFile(handle, ro.VerifyChecksums || t.opts.ParanoidChecks)
	if err != nil {
		return nil, nil, err
	}
	if !ro.FillCache {
		return blk, nil, nil
	}
	ch := t.opts.Cache.Insert(key, blk.Data(), uint64(len(blk.Data())))
	return blk, ch, nil
}

// Get looks up key and returns its value if present. found is false both
// when the key is absent and when the filter (if any) proves it cannot be
// present; err is non-nil only on I/O or corruption failures.
func (t *Table) Get(ro ReadOptions, key []byte) (value []byte, found bool, err error) {
	iit := t.indexBlock.NewIterator(t.cmp)
	iit.Seek(key)
	if !iit.Valid() {
		return nil, false, iit.Status()
	}

	handle, err := block.DecodeHandleFrom(iit.Value())
	if err != nil {
		return nil, false, ErrCorruption
	}

	if t.filter != nil && !t.filter.KeyMayMatch(handle.Offset, key) {
		t.opts.logger().Debugf("%sfilter pruned block at offset %d", logging.NSFilter, handle.Offset)
		return nil, false, nil
	}

	blk, ch, err := t.readDataBlock(handle, ro)
	if err != nil {
		return nil, false, err
	}
	if ch != nil {
		defer t.opts.Cache.Release(ch)
	}

	dit := blk.NewIterator(t.cmp)
	dit.Seek(key)
	if !dit.Valid() {
		return nil, false, dit.Status()
	}
	if t.cmp.Compare(dit.Key(), key) != 0 {
		return nil, false, nil
	}
	value = append([]byte(nil), dit.Value()...)
	return value, true, nil
}

// ApproximateOffsetOf returns an estimate of the file offset at which key
// would be found, for progress-reporting purposes. Keys past the last
// entry report the file size.
func (t *Table) ApproximateOffsetOf(key []byte) uint64 {
	iit := t.indexBlock.NewIterator(t.cmp)
	iit.Seek(key)
	if iit.Valid() {
		handle, err := block.DecodeHandleFrom(iit.Value())
		if err == nil {
			return handle.Offset
		}
	}
	return uint64(t.size)
}

// NewIterator returns a two-level iterator over every entry in the table
// in key order (or reverse key order, under the table's comparator).
func (t *Table) NewIterator(ro ReadOptions) *Iterator {
	return newIterator(t, ro)
}
