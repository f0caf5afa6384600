package filter

import "encoding/binary"

// defaultBaseLg is the default log2 of the byte range each filter partition
// covers (2^11 = 2 KiB).
const defaultBaseLg = 11

// BlockBuilder accumulates a filter block: keys are grouped into partitions
// by the byte offset of the data block they belong to, so a point lookup
// only needs to materialize the one partition covering its candidate block.
type BlockBuilder struct {
	policy Policy
	baseLg uint

	keys    []byte   // concatenated pending keys
	starts  []int    // offsets of each key within keys
	result  []byte   // filter partitions emitted so far
	offsets []uint32 // result offset of the start of partition i
}

// NewBlockBuilder returns a builder that uses policy to generate each
// partition's filter bytes.
func NewBlockBuilder(policy Policy) *BlockBuilder {
	return &BlockBuilder{policy: policy, baseLg: defaultBaseLg}
}

// AddKey adds a key to the partition currently being accumulated.
func (b *BlockBuilder) AddKey(key []byte) {
	b.starts = append(b.starts, len(b.keys))
	b.keys = append(b.keys, key...)
}

// StartBlock must be called whenever the table builder is about to append
// to a new data block, with that block's starting byte offset. It emits
// filters (possibly empty ones) until the partition array covers offset.
func (b *BlockBuilder) StartBlock(blockOffset uint64) {
	target := blockOffset >> b.baseLg
	for uint64(len(b.offsets)) < target {
		b.generateFilter()
	}
}

func (b *BlockBuilder) generateFilter() {
	numKeys := len(b.starts)
	if numKeys == 0 {
		b.offsets = append(b.offsets, uint32(len(b.result)))
		return
	}

	b.offsets = append(b.offsets, uint32(len(b.result)))
	keys := make([][]byte, numKeys)
	b.starts = append(b.starts, len(b.keys)) // sentinel for the last key's length
	for i := range numKeys {
		keys[i] = b.keys[b.starts[i]:b.starts[i+1]]
	}
	b.result = append(b.result, b.policy.CreateFilter(keys)...)

	b.keys = b.keys[:0]
	b.starts = b.starts[:0]
}

// Finish emits the final partition and the trailing offset array, array
// offset, and base_lg, returning the complete filter block body.
func (b *BlockBuilder) Finish() []byte {
	if len(b.starts) > 0 {
		b.generateFilter()
	}

	// A trailing sentinel equal to the current result length lets the
	// reader treat offsets[i+1] uniformly as the limit of partition i,
	// even for the last partition actually generated.
	b.offsets = append(b.offsets, uint32(len(b.result)))

	arrayOffset := uint32(len(b.result))
	buf := b.result
	for _, off := range b.offsets {
		buf = binary.LittleEndian.AppendUint32(buf, off)
	}
	buf = binary.LittleEndian.AppendUint32(buf, arrayOffset)
	buf = append(buf, byte(b.baseLg))
	return buf
}

// BlockReader answers key_may_match queries against a parsed filter block.
type BlockReader struct {
	policy Policy
	data   []byte // partitions || offsets
	offset int    // start of the offset array within data
	num    int    // number of partitions
	baseLg uint
}

// NewBlockReader parses a filter block produced by BlockBuilder.Finish.
func NewBlockReader(policy Policy, contents []byte) *BlockReader {
	if len(contents) < 5 {
		return nil
	}
	n := len(contents)
	baseLg := uint(contents[n-1])
	arrayOffset := binary.LittleEndian.Uint32(contents[n-5 : n-1])
	if uint64(arrayOffset) > uint64(n-5) {
		return nil
	}
	num := (n - 5 - int(arrayOffset)) / 4
	return &BlockReader{
		policy: policy,
		data:   contents,
		offset: int(arrayOffset),
		num:    num,
		baseLg: baseLg,
	}
}

// KeyMayMatch reports whether key may be present in the data block starting
// at blockOffset. A false return is a definitive "absent".
func (r *BlockReader) KeyMayMatch(blockOffset uint64, key []byte) bool {
	i := int(blockOffset >> r.baseLg)
	if i >= r.num {
		return true // conservative: unknown partition, assume present
	}

	start := r.partitionOffset(i)
	limit := r.partitionOffset(i + 1)
	if start == limit {
		return false // empty partition: definitively absent
	}
	return r.policy.MayMatch(r.data[start:limit], key)
}

func (r *BlockReader) partitionOffset(i int) uint32 {
	return binary.LittleEndian.Uint32(r.data[r.offset+i*4:])
}
