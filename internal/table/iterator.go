package table

import (
	"github.com/aalhour/sstablekv/internal/block"
	"github.com/aalhour/sstablekv/internal/cache"
)

// Iterator is a two-level iterator over a table: an outer iterator over
// the index block selects a data block, and an inner iterator walks that
// data block's entries. The inner iterator is only instantiated when the
// outer one moves to a new index entry, and is reused across Next/Prev
// calls that stay within the same data block.
type Iterator struct {
	t  *Table
	ro ReadOptions

	index *block.Iterator

	dataBlock  *block.Iterator
	dataHandle block.Handle
	haveData   bool
	cacheHdl   *cache.Handle

	err error
}

func newIterator(t *Table, ro ReadOptions) *Iterator {
	return &Iterator{
		t:     t,
		ro:    ro,
		index: t.indexBlock.NewIterator(t.cmp),
	}
}

// Valid returns true if the iterator is positioned at an entry.
func (it *Iterator) Valid() bool {
	return it.haveData && it.dataBlock != nil && it.dataBlock.Valid()
}

// Key returns the current key. Only valid when Valid() is true.
func (it *Iterator) Key() []byte {
	return it.dataBlock.Key()
}

// Value returns the current value. Only valid when Valid() is true.
func (it *Iterator) Value() []byte {
	return it.dataBlock.Value()
}

// Status returns the first error encountered, from either level.
func (it *Iterator) Status() error {
	if it.err != nil {
		return it.err
	}
	if !it.index.Valid() {
		if err := it.index.Status(); err != nil {
			return err
		}
	}
	if it.dataBlock != nil && !it.dataBlock.Valid() {
		return it.dataBlock.Status()
	}
	return nil
}

// releaseDataBlock drops the currently loaded data block and releases any
// cache handle pinning it.
func (it *Iterator) releaseDataBlock() {
	if it.cacheHdl != nil {
		it.t.opts.Cache.Release(it.cacheHdl)
		it.cacheHdl = nil
	}
	it.dataBlock = nil
	it.haveData = false
}

// setDataBlock loads the data block located by the index's current value,
// reusing the already-loaded block if the handle is unchanged.
func (it *Iterator) setDataBlock() {
	if !it.index.Valid() {
		it.releaseDataBlock()
		return
	}

	handle, err := block.DecodeHandleFrom(it.index.Value())
	if err != nil {
		it.err = ErrCorruption
		it.releaseDataBlock()
		return
	}

	if it.haveData && handle == it.dataHandle {
		return
	}

	it.releaseDataBlock()

	blk, ch, err := it.t.readDataBlock(handle, it.ro)
	if err != nil {
		it.err = err
		return
	}

	it.dataBlock = blk.NewIterator(it.t.cmp)
	it.dataHandle = handle
	it.cacheHdl = ch
	it.haveData = true
}

// SeekToFirst positions the iterator at the first entry.
func (it *Iterator) SeekToFirst() {
	it.index.SeekToFirst()
	it.setDataBlock()
	if it.haveData {
		it.dataBlock.SeekToFirst()
	}
	it.skipEmptyDataBlocksForward()
}

// SeekToLast positions the iterator at the last entry.
func (it *Iterator) SeekToLast() {
	it.index.SeekToLast()
	it.setDataBlock()
	if it.haveData {
		it.dataBlock.SeekToLast()
	}
	it.skipEmptyDataBlocksBackward()
}

// Seek positions the iterator at the first entry with key >= target.
func (it *Iterator) Seek(target []byte) {
	it.index.Seek(target)
	it.setDataBlock()
	if it.haveData {
		it.dataBlock.Seek(target)
	}
	it.skipEmptyDataBlocksForward()
}

// Next moves to the next entry. REQUIRES: Valid().
func (it *Iterator) Next() {
	it.dataBlock.Next()
	it.skipEmptyDataBlocksForward()
}

// Prev moves to the previous entry. REQUIRES: Valid().
func (it *Iterator) Prev() {
	it.dataBlock.Prev()
	it.skipEmptyDataBlocksBackward()
}

// skipEmptyDataBlocksForward advances the index iterator past any data
// blocks that turn out to be empty (which should not occur in a table
// written by Builder, but a hostile or corrupted file could contain one).
func (it *Iterator) skipEmptyDataBlocksForward() {
	for !it.haveData || !it.dataBlock.Valid() {
		if it.haveData && it.dataBlock.Status() != nil {
			it.err = it.dataBlock.Status()
			return
		}
		if !it.index.Valid() {
			it.releaseDataBlock()
			return
		}
		it.index.Next()
		it.setDataBlock()
		if !it.index.Valid() {
			it.releaseDataBlock()
			return
		}
		if it.haveData {
			it.dataBlock.SeekToFirst()
		}
	}
}

func (it *Iterator) skipEmptyDataBlocksBackward() {
	for !it.haveData || !it.dataBlock.Valid() {
		if it.haveData && it.dataBlock.Status() != nil {
			it.err = it.dataBlock.Status()
			return
		}
		if !it.index.Valid() {
			it.releaseDataBlock()
			return
		}
		it.index.Prev()
		if !it.index.Valid() {
			it.releaseDataBlock()
			return
		}
		it.setDataBlock()
		if it.haveData {
			it.dataBlock.SeekToLast()
		}
	}
}

// Close releases any cache handle held by the iterator. Callers must call
// Close when done iterating.
func (it *Iterator) Close() error {
	it.releaseDataBlock()
	return it.err
}
