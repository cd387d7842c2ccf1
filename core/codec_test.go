package core

import (
	"math/bits"
	"testing"
)

func TestPack16Unpack16RoundTrip(t *testing.T) {
	values := []int32{
		0x0000, 0x0001, 0x0002, 0x5678, 0x7FFF,
		int32(0x8000), int32(0xAAAA), int32(0xCDEF), int32(0xFFFF),
	}

	for _, a := range values {
		for _, b := range values {
			gotA, gotB := Unpack16(Pack16(a, b))
			if gotA != a&0xFFFF || gotB != b&0xFFFF {
				t.Errorf("Unpack16(Pack16(%#x, %#x)) = %#x, %#x",
					a, b, gotA, gotB)
			}
		}
	}

	// Sweep the full 16-bit range for one operand, pairing it with its
	// complement to keep both halves of the word moving.
	for a := int32(0); a <= 0xFFFF; a++ {
		b := a ^ 0x5A5A
		gotA, gotB := Unpack16(Pack16(a, b))
		if gotA != a || gotB != b {
			t.Fatalf("Unpack16(Pack16(%#x, %#x)) = %#x, %#x",
				a, b, gotA, gotB)
		}
	}
}

func TestPack16IgnoresUpperBits(t *testing.T) {
	// Only the low 16 bits of each sample are meaningful; garbage above
	// them must not reach the wire.
	a, b := int32(0x5678), int32(0xCDEF)
	dirtyA := a | int32(-1)<<16
	dirtyB := b | 0x1234<<16

	if Pack16(dirtyA, dirtyB) != Pack16(a, b) {
		t.Errorf("Pack16 leaked bits above bit 15 onto the wire")
	}
}

func TestPack16WireOrder(t *testing.T) {
	// The port shifts bit 0 of the raw word first, and a TDM channel is
	// carried MSB first. So bit 0 of the packed word must be the first
	// channel's MSB, and the first sample's bits must precede the
	// second's entirely.
	w := Pack16(0x8000, 0)
	if w&1 != 1 {
		t.Errorf("bit 0 of Pack16(0x8000, 0) = %d, want 1 (channel 0 MSB first)", w&1)
	}

	w = Pack16(0, int32(0xFFFF))
	if w&0xFFFF != 0 {
		t.Errorf("Pack16(0, 0xFFFF) = %#08x: channel 1 bits appear before channel 0's slot", w)
	}
	if w>>16 != 0xFFFF {
		t.Errorf("Pack16(0, 0xFFFF) = %#08x: channel 1 bits missing from second slot", w)
	}
}

func TestUnpack16ZeroExtends(t *testing.T) {
	a, b := Unpack16(Pack16(int32(0x8000), int32(0xFFFF)))
	if uint32(a)>>16 != 0 || uint32(b)>>16 != 0 {
		t.Errorf("Unpack16 produced non-zero upper bits: %#x, %#x", a, b)
	}
}

func TestPackWordRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 0x12345678, int32(-0x76543211), 1 << 30, -1 << 31}
	for _, s := range values {
		if got := UnpackWord(PackWord(s)); got != s {
			t.Errorf("UnpackWord(PackWord(%#x)) = %#x", s, got)
		}
		if got := PackWord(s); got != bits.Reverse32(uint32(s)) {
			t.Errorf("PackWord(%#x) = %#08x, want bit reversal", s, got)
		}
	}
}
