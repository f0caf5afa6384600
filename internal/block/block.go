package block

import (
	"encoding/binary"

	"github.com/aalhour/sstablekv/internal/encoding"
)

// Comparator is the narrow ordering contract the block package needs: a
// total order on opaque byte-string keys. The root package's Comparator
// satisfies this trivially; block never needs Name/separator/successor.
type Comparator interface {
	Compare(a, b []byte) int
}

// Block represents a parsed block containing key-value pairs. The format is:
//
//	entries: key-value pairs with prefix compression
//	restarts: uint32[num_restarts] - offsets of restart points
//	num_restarts: uint32
//
// Each entry has the format:
//
//	shared_bytes: varint32 (shared prefix with previous key)
//	unshared_bytes: varint32 (unshared key suffix length)
//	value_length: varint32
//	key_delta: char[unshared_bytes]
//	value: char[value_length]
type Block struct {
	data        []byte // raw block data
	restarts    int    // offset of the restarts array within data
	numRestarts int    // number of restart points
}

// NewBlock creates a new Block from raw data. The data slice is not copied;
// the caller must ensure it remains valid for the block's lifetime.
func NewBlock(data []byte) (*Block, error) {
	if len(data) < 4 {
		return nil, ErrBadBlock
	}

	footerOffset := len(data) - 4
	numRestarts := binary.LittleEndian.Uint32(data[footerOffset:])
	if numRestarts == 0 {
		return nil, ErrBadBlock
	}

	restartsSize := int(numRestarts+1) * 4 // +1 for the trailing count word
	if restartsSize > len(data) {
		return nil, ErrBadBlock
	}
	restartsOffset := len(data) - restartsSize

	return &Block{
		data:        data,
		restarts:    restartsOffset,
		numRestarts: int(numRestarts),
	}, nil
}

// Size returns the size of the block data.
func (b *Block) Size() int {
	return len(b.data)
}

// Data returns the raw block data.
func (b *Block) Data() []byte {
	return b.data
}

// NumRestarts returns the number of restart points.
func (b *Block) NumRestarts() int {
	return b.numRestarts
}

// GetRestartPoint returns the offset of the i-th restart point.
func (b *Block) GetRestartPoint(i int) int {
	if i < 0 || i >= b.numRestarts {
		return -1
	}
	offset := b.restarts + i*4
	return int(binary.LittleEndian.Uint32(b.data[offset:]))
}

// DataEnd returns the end offset of the data section (start of restarts array).
func (b *Block) DataEnd() int {
	return b.restarts
}

// Iterator iterates over the entries in a block, bidirectionally and
// seekably, using an external Comparator to order keys.
type Iterator struct {
	block       *Block
	cmp         Comparator
	data        []byte // points to block.data
	restartsEnd int    // end of data section
	current     int    // current entry start offset in data
	nextOffset  int    // offset of next entry (after current key+value)
	key         []byte // current key (fully assembled)
	value       []byte // current value (slice into data)
	valid       bool   // whether iterator is at a valid entry
	err         error  // non-nil iff the iterator stopped due to corruption
}

// NewIterator creates a new block iterator ordered by cmp.
func (b *Block) NewIterator(cmp Comparator) *Iterator {
	return &Iterator{
		block:       b,
		cmp:         cmp,
		data:        b.data,
		restartsEnd: b.restarts,
	}
}

// Valid returns true if the iterator is positioned at a valid entry.
func (it *Iterator) Valid() bool {
	return it.valid && it.err == nil
}

// Key returns the current key. Only valid if Valid() returns true.
// The returned slice is invalidated by the next call that advances the
// iterator (Next, Prev, Seek, SeekToFirst, SeekToLast).
func (it *Iterator) Key() []byte {
	return it.key
}

// Value returns the current value. Only valid if Valid() returns true.
func (it *Iterator) Value() []byte {
	return it.value
}

// Status returns nil if the iterator has not encountered corruption.
// Valid()==false with Status()==nil means "exhausted"; Valid()==false with
// a non-nil Status means the iterator stopped due to corruption.
func (it *Iterator) Status() error {
	return it.err
}

// SeekToFirst positions the iterator at the first entry.
func (it *Iterator) SeekToFirst() {
	it.key = it.key[:0]
	it.value = nil
	it.valid = false
	it.current = 0
	it.nextOffset = 0
	it.Next()
}

// SeekToLast positions the iterator at the last entry. If a mid-scan parse
// failure occurs after one or more valid entries have already been seen,
// the latched error takes precedence: the iterator is left invalid with
// Status() reporting the corruption, not reset to the last good entry.
func (it *Iterator) SeekToLast() {
	it.seekToRestartPoint(it.block.numRestarts - 1)

	var lastKey []byte
	var lastValue []byte
	var lastCurrent, lastNextOffset int
	lastValid := false

	for {
		it.Next()
		if !it.Valid() {
			break
		}
		lastKey = append(lastKey[:0], it.key...)
		lastValue = it.value
		lastCurrent = it.current
		lastNextOffset = it.nextOffset
		lastValid = true
	}

	if it.err != nil {
		it.valid = false
		return
	}

	if lastValid {
		it.key = lastKey
		it.value = lastValue
		it.current = lastCurrent
		it.nextOffset = lastNextOffset
		it.valid = true
	}
}

// Next moves to the next entry.
func (it *Iterator) Next() {
	if it.err != nil {
		it.valid = false
		return
	}
	if it.nextOffset >= it.restartsEnd {
		it.valid = false
		return
	}
	it.current = it.nextOffset
	it.parseCurrentEntry()
}

// Prev moves to the previous entry.
// REQUIRES: Valid()
//
// If a mid-scan parse failure occurs while re-scanning forward from the
// preceding restart point, the latched error takes precedence: the
// iterator is left invalid with Status() reporting the corruption, not
// reset to whatever entry was last parsed successfully.
func (it *Iterator) Prev() {
	if it.err != nil {
		it.valid = false
		return
	}

	original := it.current

	restartIndex := it.findRestartPointBefore(original)
	if it.block.GetRestartPoint(restartIndex) == original && restartIndex > 0 {
		restartIndex--
	}
	it.seekToRestartPoint(restartIndex)

	var prevKey []byte
	var prevValue []byte
	var prevCurrent, prevNextOffset int
	found := false

	for {
		it.Next()
		if it.err != nil {
			break
		}
		if !it.valid || it.current >= original {
			break
		}
		prevKey = append(prevKey[:0], it.key...)
		prevValue = it.value
		prevCurrent = it.current
		prevNextOffset = it.nextOffset
		found = true
	}

	if it.err != nil {
		it.valid = false
		return
	}

	if found {
		it.key = prevKey
		it.value = prevValue
		it.current = prevCurrent
		it.nextOffset = prevNextOffset
		it.valid = true
	} else {
		it.valid = false
	}
}

// findRestartPointBefore finds the largest restart index with offset <= target.
func (it *Iterator) findRestartPointBefore(target int) int {
	left := 0
	right := it.block.numRestarts - 1

	for left < right {
		mid := (left + right + 1) / 2
		if it.block.GetRestartPoint(mid) <= target {
			left = mid
		} else {
			right = mid - 1
		}
	}
	return left
}

// seekToRestartPoint positions the iterator at the given restart point.
func (it *Iterator) seekToRestartPoint(index int) {
	it.key = it.key[:0]
	it.value = nil
	it.valid = false
	offset := max(it.block.GetRestartPoint(index), 0)
	it.current = offset
	it.nextOffset = offset
}

// parseCurrentEntry parses the entry at it.current.
func (it *Iterator) parseCurrentEntry() {
	if it.current >= it.restartsEnd {
		it.valid = false
		return
	}

	data := it.data[it.current:]
	offset := 0

	shared, n1, err := encoding.DecodeVarint32(data)
	if err != nil {
		it.err = ErrBadBlock
		it.valid = false
		return
	}
	offset += n1
	data = data[n1:]

	unshared, n2, err := encoding.DecodeVarint32(data)
	if err != nil {
		it.err = ErrBadBlock
		it.valid = false
		return
	}
	offset += n2
	data = data[n2:]

	valueLen, n3, err := encoding.DecodeVarint32(data)
	if err != nil {
		it.err = ErrBadBlock
		it.valid = false
		return
	}
	offset += n3
	data = data[n3:]

	if int(shared) > len(it.key) || len(data) < int(unshared)+int(valueLen) {
		it.err = ErrBadBlock
		it.valid = false
		return
	}

	it.key = append(it.key[:shared], data[:unshared]...)
	offset += int(unshared)
	data = data[unshared:]

	it.value = data[:valueLen]
	offset += int(valueLen)

	it.nextOffset = it.current + offset
	it.valid = true
}

// Seek positions the iterator at the first key >= target under cmp.
// Binary-searches the restart array on each restart's first key, then
// linear-scans forward. When two restarts have equal first keys, the later
// one is chosen. When target precedes every key, the iterator lands on
// restart 0 (the caller must check ordering).
func (it *Iterator) Seek(target []byte) {
	left := 0
	right := it.block.numRestarts - 1

	for left < right {
		mid := (left + right + 1) / 2
		it.seekToRestartPoint(mid)
		it.Next()

		if !it.Valid() || it.cmp.Compare(it.key, target) > 0 {
			right = mid - 1
		} else {
			left = mid
		}
	}

	it.seekToRestartPoint(left)
	for {
		it.Next()
		if !it.Valid() {
			return
		}
		if it.cmp.Compare(it.key, target) >= 0 {
			return
		}
	}
}
