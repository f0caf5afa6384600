// Package filter implements pluggable key-set filters for SST files and the
// per-byte-range filter block that partitions them across a table.
//
// The Bloom implementation here is a cache-line-local Bloom filter: all
// probes for a key land within a single 64-byte cache line, which keeps a
// filter lookup to one cache miss regardless of bits-per-key.
package filter

import (
	"github.com/zeebo/xxh3"
)

// Policy is a pluggable key-set filter: something that can build a compact
// summary of a set of keys and later answer, approximately, whether a given
// key was a member.
type Policy interface {
	// Name identifies the policy; it is embedded in the metaindex key
	// ("filter.<name>") so a reader can recognize a filter it understands.
	Name() string

	// CreateFilter builds a filter covering the given keys.
	CreateFilter(keys [][]byte) []byte

	// MayMatch reports whether key may be a member of filter. False means
	// key is definitely not a member; true may be a false positive.
	MayMatch(filter, key []byte) bool
}

const (
	cacheLineSize = 64
	cacheLineBits = cacheLineSize * 8
)

// BloomPolicy is a cache-line Bloom filter policy hashed with xxh3.
type BloomPolicy struct {
	bitsPerKey int
}

// NewBloomPolicy returns a policy targeting bitsPerKey bits of filter data
// per key; 10 bits/key gives roughly a 1% false-positive rate.
func NewBloomPolicy(bitsPerKey int) *BloomPolicy {
	if bitsPerKey < 1 {
		bitsPerKey = 1
	}
	return &BloomPolicy{bitsPerKey: bitsPerKey}
}

func (p *BloomPolicy) Name() string { return "rocksdb.BuiltinBloomFilter" }

// CreateFilter builds a Bloom filter over keys. An empty key set produces a
// single always-false byte.
func (p *BloomPolicy) CreateFilter(keys [][]byte) []byte {
	if len(keys) == 0 {
		return []byte{0}
	}

	totalBits := len(keys) * p.bitsPerKey
	numCacheLines := (totalBits + cacheLineBits - 1) / cacheLineBits
	if numCacheLines == 0 {
		numCacheLines = 1
	}
	numBytes := numCacheLines * cacheLineSize

	numProbes := chooseNumProbes(p.bitsPerKey * 1000)

	data := make([]byte, numBytes+1)
	for _, k := range keys {
		addHash(xxh3.Hash(k), uint32(numBytes), numProbes, data)
	}
	data[numBytes] = byte(numProbes)
	return data
}

// MayMatch reports whether key may be a member of the filter produced by
// CreateFilter.
func (p *BloomPolicy) MayMatch(filter, key []byte) bool {
	n := len(filter)
	if n < 2 {
		return false // a single-byte always-false filter still answers false
	}

	numProbes := int(filter[n-1])
	if numProbes == 0 {
		return false
	}

	numBytes := uint32(n - 1)
	return hashMayMatch(xxh3.Hash(key), numBytes, numProbes, filter[:numBytes])
}

// chooseNumProbes picks the number of hash probes per key that minimizes
// the false-positive rate for the given bits-per-key budget (in millibits).
func chooseNumProbes(millibitsPerKey int) int {
	switch {
	case millibitsPerKey <= 2080:
		return 1
	case millibitsPerKey <= 3580:
		return 2
	case millibitsPerKey <= 5100:
		return 3
	case millibitsPerKey <= 6640:
		return 4
	case millibitsPerKey <= 8300:
		return 5
	case millibitsPerKey <= 10070:
		return 6
	case millibitsPerKey <= 11720:
		return 7
	case millibitsPerKey <= 14001:
		return 8
	case millibitsPerKey <= 16050:
		return 9
	case millibitsPerKey <= 18300:
		return 10
	case millibitsPerKey <= 22001:
		return 11
	case millibitsPerKey <= 25501:
		return 12
	case millibitsPerKey > 50000:
		return 24
	default:
		return (millibitsPerKey-1)/2000 - 1
	}
}

// fastRange32 maps h into [0, n) without a division.
func fastRange32(h, n uint32) uint32 {
	return uint32((uint64(h) * uint64(n)) >> 32)
}

func addHash(hash uint64, numBytes uint32, numProbes int, data []byte) {
	h1, h2 := uint32(hash), uint32(hash>>32)
	numCacheLines := numBytes >> 6
	if numCacheLines == 0 {
		return
	}
	cacheLineOffset := fastRange32(h1, numCacheLines) << 6
	line := data[cacheLineOffset : cacheLineOffset+cacheLineSize]

	h := h2
	for range numProbes {
		bitpos := h >> (32 - 9)
		line[bitpos>>3] |= 1 << (bitpos & 7)
		h *= 0x9e3779b9
	}
}

func hashMayMatch(hash uint64, numBytes uint32, numProbes int, data []byte) bool {
	h1, h2 := uint32(hash), uint32(hash>>32)
	numCacheLines := numBytes >> 6
	if numCacheLines == 0 {
		return false
	}
	cacheLineOffset := fastRange32(h1, numCacheLines) << 6
	line := data[cacheLineOffset : cacheLineOffset+cacheLineSize]

	h := h2
	for range numProbes {
		bitpos := h >> (32 - 9)
		if line[bitpos>>3]&(1<<(bitpos&7)) == 0 {
			return false
		}
		h *= 0x9e3779b9
	}
	return true
}
