// Tests for the legacy (48-byte) footer encoding.
package block

import (
	"encoding/binary"
	"testing"
)

func TestFooterRoundTrip(t *testing.T) {
	testCases := []struct {
		name            string
		metaindexOffset uint64
		metaindexSize   uint64
		indexOffset     uint64
		indexSize       uint64
	}{
		{"small values", 0, 100, 100, 200},
		{"distinct values", 1000, 500, 2000, 750},
		{"large values", 1 << 30, 1 << 20, 1 << 31, 1 << 21},
		{"max varint values", 1<<63 - 1, 1<<32 - 1, 1<<62 - 1, 1<<31 - 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			footer := Footer{
				MetaindexHandle: Handle{Offset: tc.metaindexOffset, Size: tc.metaindexSize},
				IndexHandle:     Handle{Offset: tc.indexOffset, Size: tc.indexSize},
			}

			encoded := footer.EncodeTo()
			if len(encoded) != EncodedLength {
				t.Fatalf("EncodeTo() length = %d, want %d", len(encoded), EncodedLength)
			}

			decoded, err := DecodeFooter(encoded)
			if err != nil {
				t.Fatalf("DecodeFooter failed: %v", err)
			}

			if decoded.MetaindexHandle != footer.MetaindexHandle {
				t.Errorf("MetaindexHandle mismatch: got %+v, want %+v", decoded.MetaindexHandle, footer.MetaindexHandle)
			}
			if decoded.IndexHandle != footer.IndexHandle {
				t.Errorf("IndexHandle mismatch: got %+v, want %+v", decoded.IndexHandle, footer.IndexHandle)
			}
		})
	}
}

func TestFooterEncodedLengthIs48(t *testing.T) {
	if EncodedLength != 48 {
		t.Fatalf("EncodedLength = %d, want 48", EncodedLength)
	}
}

func TestFooterMagicCorruption(t *testing.T) {
	footer := Footer{
		MetaindexHandle: Handle{Offset: 10, Size: 20},
		IndexHandle:     Handle{Offset: 30, Size: 40},
	}
	encoded := footer.EncodeTo()

	for i := len(encoded) - MagicNumberLengthByte; i < len(encoded); i++ {
		corrupted := append([]byte(nil), encoded...)
		corrupted[i] ^= 0xff
		if _, err := DecodeFooter(corrupted); err == nil {
			t.Errorf("DecodeFooter accepted corrupted magic at byte %d", i)
		}
	}
}

func TestFooterWrongLength(t *testing.T) {
	if _, err := DecodeFooter(make([]byte, EncodedLength-1)); err == nil {
		t.Fatal("DecodeFooter accepted a too-short buffer")
	}
	if _, err := DecodeFooter(make([]byte, EncodedLength+1)); err == nil {
		t.Fatal("DecodeFooter accepted a too-long buffer")
	}
}

func TestFooterMagicValue(t *testing.T) {
	footer := Footer{}
	encoded := footer.EncodeTo()
	got := binary.LittleEndian.Uint64(encoded[len(encoded)-MagicNumberLengthByte:])
	if got != Magic {
		t.Errorf("magic = 0x%x, want 0x%x", got, Magic)
	}
}
