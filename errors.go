package sstablekv

import "errors"

// Sentinel errors expressing the SST core's semantic error kinds. IO errors
// from the Storage layer are not wrapped here; they propagate verbatim.
var (
	// ErrCorruption means on-disk data failed a structural or checksum
	// check: bad magic, bad varint, a truncated trailer, a CRC mismatch,
	// a restart array out of range, or a bad handle encoding.
	ErrCorruption = errors.New("sstablekv: corruption")

	// ErrInvalidArgument means the caller violated an API precondition:
	// a non-monotonic key passed to a builder, an operation after
	// Finish/Close, or an unrecognized compression tag.
	ErrInvalidArgument = errors.New("sstablekv: invalid argument")
)
