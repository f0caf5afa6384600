// builder.go implements block building with prefix compression.
//
// Builder generates blocks where keys are prefix-compressed with periodic
// restart points for efficient random access.
package block

import (
	"fmt"

	"github.com/aalhour/sstablekv/internal/encoding"
)

// Builder generates blocks where keys are prefix-compressed.
//
// When we store a key, we drop the prefix shared with the previous key.
// This helps reduce the space requirement significantly. Furthermore,
// once every K keys, we do not apply the prefix compression and store
// the entire key. We call this a "restart point".
//
// Format (single entry):
//
//	shared_bytes:    varint32
//	unshared_bytes:  varint32
//	value_length:    varint32
//	key_delta:       char[unshared_bytes]
//	value:           char[value_length]
//
// Format (overall block):
//
//	[entry 1]
//	[entry 2]
//	...
//	[entry N]
//	[restart point 1: uint32]
//	...
//	[restart point M: uint32]
//	[num_restarts: uint32]
type Builder struct {
	cmp             Comparator
	buffer          []byte   // Serialized block data
	restarts        []uint32 // Restart points (offsets into buffer)
	counter         int      // Entries since last restart
	restartInterval int      // Restart interval
	lastKey         []byte   // Last key added
	finished        bool     // Whether Finish() has been called
}

// NewBuilder creates a new block builder using cmp to enforce that keys
// arrive in strictly increasing order. restartInterval controls how often
// restart points are created; set to 1 for no prefix compression.
func NewBuilder(cmp Comparator, restartInterval int) *Builder {
	if restartInterval < 1 {
		restartInterval = 1
	}
	return &Builder{
		cmp:             cmp,
		buffer:          make([]byte, 0, 4096),
		restartInterval: restartInterval,
		restarts:        []uint32{0},
	}
}

// Reset resets the builder for reuse.
func (b *Builder) Reset() {
	b.buffer = b.buffer[:0]
	b.restarts = b.restarts[:1]
	b.restarts[0] = 0
	b.counter = 0
	b.lastKey = b.lastKey[:0]
	b.finished = false
}

// Add adds a key-value pair to the block.
// REQUIRES: Finish() has not been called since the last Reset().
// REQUIRES: key is larger than any previously added key, under cmp.
func (b *Builder) Add(key, value []byte) {
	if b.finished {
		panic("block: Add called after Finish")
	}
	if len(b.buffer) > 0 && b.cmp.Compare(key, b.lastKey) <= 0 {
		panic(fmt.Sprintf("block: Add called with non-increasing key %q after %q", key, b.lastKey))
	}

	shared := 0
	if b.counter < b.restartInterval {
		shared = sharedPrefixLength(b.lastKey, key)
	} else {
		b.restarts = append(b.restarts, uint32(len(b.buffer)))
		b.counter = 0
	}

	unshared := len(key) - shared

	b.buffer = encoding.AppendVarint32(b.buffer, uint32(shared))
	b.buffer = encoding.AppendVarint32(b.buffer, uint32(unshared))
	b.buffer = encoding.AppendVarint32(b.buffer, uint32(len(value)))
	b.buffer = append(b.buffer, key[shared:]...)
	b.buffer = append(b.buffer, value...)

	b.lastKey = append(b.lastKey[:0], key...)
	b.counter++
}

// CurrentSizeEstimate returns an estimate of the current block size,
// including the restart array and the trailing restart count.
func (b *Builder) CurrentSizeEstimate() int {
	return len(b.buffer) + len(b.restarts)*4 + 4
}

// Empty returns true if no entries have been added.
func (b *Builder) Empty() bool {
	return len(b.buffer) == 0
}

// Finish finishes building the block and returns the block data.
// The returned slice is valid until Reset() is called.
func (b *Builder) Finish() []byte {
	for _, restart := range b.restarts {
		b.buffer = encoding.AppendFixed32(b.buffer, restart)
	}
	b.buffer = encoding.AppendFixed32(b.buffer, uint32(len(b.restarts)))
	b.finished = true
	return b.buffer
}

// sharedPrefixLength returns the length of the shared prefix between a and b.
func sharedPrefixLength(a, b []byte) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
