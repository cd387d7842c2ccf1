// Package wire implements the framed capture stream a TDM target uses to
// ship received sample frames to a host checker over a serial link.
//
// Layout of one capture frame on the byte stream:
//
//	[0:2]  total length, little endian
//	[2]    sequence number
//	[3]    line count
//	[4]    channel count
//	[5:n]  samples, int32 little endian, line-major
//	[n:n+2] CRC16 over everything before it, big endian
//	[n+2]  sync byte 0x7E
package wire

import (
	"encoding/binary"
	"errors"

	"gotdm/core"
)

const (
	HeaderSize  = 5
	TrailerSize = 3

	LengthMin = HeaderSize + TrailerSize
	LengthMax = HeaderSize + core.MaxLines*core.MaxChans*4 + TrailerSize

	SyncByte = 0x7E
)

var (
	ErrShortFrame  = errors.New("wire: incomplete frame")
	ErrBadLength   = errors.New("wire: implausible frame length")
	ErrBadGeometry = errors.New("wire: line/channel count out of range")
	ErrBadCRC      = errors.New("wire: CRC mismatch")
	ErrBadSync     = errors.New("wire: missing sync byte")
)

// Frame is one decoded capture frame: the samples one slave run received (or
// sent) during a single bus frame.
type Frame struct {
	Seq   uint8
	Lines uint8
	Chans uint8
	// Samples holds Lines×Chans values, line-major.
	Samples []int32
}

// Capture builds a Frame from the first lines×chans samples of a sample
// block.
func Capture(seq uint8, lines, chans int, buf *core.SampleBuffer) Frame {
	f := Frame{
		Seq:     seq,
		Lines:   uint8(lines),
		Chans:   uint8(chans),
		Samples: make([]int32, 0, lines*chans),
	}
	for l := 0; l < lines; l++ {
		for c := 0; c < chans; c++ {
			f.Samples = append(f.Samples, buf.Line[l].Channel[c])
		}
	}
	return f
}

// Encode serializes the frame, including length, CRC trailer and sync byte.
func (f *Frame) Encode() []byte {
	n := HeaderSize + len(f.Samples)*4 + TrailerSize
	out := make([]byte, n)

	binary.LittleEndian.PutUint16(out[0:2], uint16(n))
	out[2] = f.Seq
	out[3] = f.Lines
	out[4] = f.Chans
	for i, s := range f.Samples {
		binary.LittleEndian.PutUint32(out[HeaderSize+i*4:], uint32(s))
	}

	crc := CRC16(out[:n-TrailerSize])
	out[n-3] = byte(crc >> 8)
	out[n-2] = byte(crc)
	out[n-1] = SyncByte
	return out
}

// Decode parses the first complete frame in data and reports how many bytes
// it consumed, including any leading sync bytes it skipped. ErrShortFrame
// means more data is needed; any other error means the stream is corrupt and
// the caller should resynchronize on the next sync byte.
func Decode(data []byte) (Frame, int, error) {
	skipped := 0
	for len(data) > 0 && data[0] == SyncByte {
		data = data[1:]
		skipped++
	}
	if len(data) < LengthMin {
		return Frame{}, skipped, ErrShortFrame
	}

	n := int(binary.LittleEndian.Uint16(data[0:2]))
	if n < LengthMin || n > LengthMax || (n-LengthMin)%4 != 0 {
		return Frame{}, skipped, ErrBadLength
	}
	if len(data) < n {
		return Frame{}, skipped, ErrShortFrame
	}

	f := Frame{
		Seq:   data[2],
		Lines: data[3],
		Chans: data[4],
	}
	if f.Lines > core.MaxLines || f.Chans > core.MaxChans ||
		int(f.Lines)*int(f.Chans)*4 != n-LengthMin {
		return Frame{}, skipped, ErrBadGeometry
	}
	if data[n-1] != SyncByte {
		return Frame{}, skipped, ErrBadSync
	}
	want := uint16(data[n-3])<<8 | uint16(data[n-2])
	if got := CRC16(data[:n-TrailerSize]); got != want {
		return Frame{}, skipped, ErrBadCRC
	}

	f.Samples = make([]int32, (n-LengthMin)/4)
	for i := range f.Samples {
		f.Samples[i] = int32(binary.LittleEndian.Uint32(data[HeaderSize+i*4:]))
	}
	return f, skipped + n, nil
}
