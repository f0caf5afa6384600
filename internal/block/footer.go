// footer.go implements the fixed-length SST footer: two block handles
// (metaindex, index) zero-padded to a fixed width, followed by an 8-byte
// magic number.
package block

import (
	"encoding/binary"
)

// Magic is the first 64 bits of the SHA-1 hash of
// "http://code.google.com/p/leveldb/", identifying a well-formed table file.
const Magic uint64 = 0xdb4775248b80fb57

// MagicNumberLengthByte is the length of the magic number in bytes.
const MagicNumberLengthByte = 8

// BlockTrailerSize is the size of a block's trailer: 1-byte compression
// tag + 4-byte masked CRC-32C.
const BlockTrailerSize = 5

// EncodedLength is the fixed footer size: the two handles are varint-encoded
// into a joint buffer padded to 2*MaxEncodedLength, followed by the magic.
const EncodedLength = 2*MaxEncodedLength + MagicNumberLengthByte

// Footer is the fixed-size structure at the tail of every table file.
type Footer struct {
	MetaindexHandle Handle
	IndexHandle     Handle
}

// EncodeTo encodes the footer into a new EncodedLength-byte buffer.
func (f *Footer) EncodeTo() []byte {
	buf := make([]byte, EncodedLength)

	n := 0
	encoded := f.MetaindexHandle.EncodeTo(nil)
	n += copy(buf[n:], encoded)
	encoded = f.IndexHandle.EncodeTo(nil)
	n += copy(buf[n:], encoded)
	// buf[n:2*MaxEncodedLength] is already zero from make(); this is the
	// required zero-padding of the joint handle buffer.

	binary.LittleEndian.PutUint64(buf[2*MaxEncodedLength:], Magic)
	return buf
}

// DecodeFooter decodes a footer from data, which must be exactly
// EncodedLength bytes (the last EncodedLength bytes of a table file).
func DecodeFooter(data []byte) (*Footer, error) {
	if len(data) != EncodedLength {
		return nil, ErrBadBlockFooter
	}

	magic := binary.LittleEndian.Uint64(data[2*MaxEncodedLength:])
	if magic != Magic {
		return nil, ErrBadBlockFooter
	}

	f := &Footer{}
	var err error
	var rest []byte
	f.MetaindexHandle, rest, err = DecodeHandle(data[:2*MaxEncodedLength])
	if err != nil {
		return nil, err
	}
	f.IndexHandle, _, err = DecodeHandle(rest)
	if err != nil {
		return nil, err
	}
	return f, nil
}
