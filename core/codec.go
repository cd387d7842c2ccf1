package core

import "math/bits"

// The bit-depth codec converts between channel-ordered samples and the raw
// word order of the shift hardware. A buffered port shifts bit 0 of a word
// first, while a TDM channel is carried most-significant-bit first, so two
// packed 16-bit samples travel as one bit-reversed 32-bit word.

// Pack16 packs two 16-bit channel samples into one raw port word. Sample a
// occupies the first channel slot on the wire, b the second. Bits above the
// low 16 of each sample are ignored.
func Pack16(a, b int32) uint32 {
	return bits.Reverse32(uint32(a)<<16 | uint32(b)&0xFFFF)
}

// Unpack16 recovers two channel samples from one raw port word. It is the
// exact inverse of Pack16: the low 16 bits of each result carry the sample,
// the upper bits are zero.
func Unpack16(w uint32) (a, b int32) {
	r := bits.Reverse32(w)
	return int32(r >> 16), int32(r & 0xFFFF)
}

// PackWord converts one full-width 32-bit channel sample to raw wire order.
// Used by the whole-frame transmit path, where every slot is 32 bits wide.
func PackWord(s int32) uint32 {
	return bits.Reverse32(uint32(s))
}

// UnpackWord is the inverse of PackWord.
func UnpackWord(w uint32) int32 {
	return int32(bits.Reverse32(w))
}
