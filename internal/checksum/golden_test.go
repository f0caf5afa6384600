package checksum

import (
	"testing"
)

// TestGoldenCRC32CDeterminism tests that CRC32C is deterministic.
func TestGoldenCRC32CDeterminism(t *testing.T) {
	testCases := []struct {
		name  string
		input []byte
	}{
		{"empty", []byte{}},
		{"single byte", []byte{0x00}},
		{"hello", []byte("hello")},
		{"123456789", []byte("123456789")},
		{"long string", []byte("The quick brown fox jumps over the lazy dog")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			crc1 := Value(tc.input)
			crc2 := Value(tc.input)
			if crc1 != crc2 {
				t.Errorf("CRC32C not deterministic: got 0x%08x and 0x%08x", crc1, crc2)
			}
		})
	}
}

// TestGoldenCRC32CMaskUnmaskRoundtrip tests mask/unmask roundtrip.
func TestGoldenCRC32CMaskUnmaskRoundtrip(t *testing.T) {
	testCases := []uint32{
		0x00000000,
		0xFFFFFFFF,
		0x12345678,
		0xDEADBEEF,
		Value([]byte("hello")),
		Value([]byte("sstablekv")),
	}

	for _, crc := range testCases {
		masked := Mask(crc)
		unmasked := Unmask(masked)
		if unmasked != crc {
			t.Errorf("Unmask(Mask(0x%08x)) = 0x%08x", crc, unmasked)
		}
	}
}

// TestGoldenCRC32CExtend tests CRC extension.
func TestGoldenCRC32CExtend(t *testing.T) {
	// CRC of "helloworld" should equal extending CRC of "hello" with "world"
	full := Value([]byte("helloworld"))
	extended := Extend(Value([]byte("hello")), []byte("world"))
	if full != extended {
		t.Errorf("CRC(helloworld) = 0x%08x, Extend(CRC(hello), world) = 0x%08x", full, extended)
	}
}

// TestGoldenMaskedValueMatchesMaskOfValue checks the MaskedValue/MaskedExtend
// convenience wrappers agree with calling Mask and Value separately.
func TestGoldenMaskedValueMatchesMaskOfValue(t *testing.T) {
	data := []byte("a block trailer's payload plus its compression tag")
	if got, want := MaskedValue(data), Mask(Value(data)); got != want {
		t.Errorf("MaskedValue = 0x%08x, want 0x%08x", got, want)
	}
	if got, want := MaskedExtend(0, data), Mask(Extend(0, data)); got != want {
		t.Errorf("MaskedExtend = 0x%08x, want 0x%08x", got, want)
	}
}
