package wire

import (
	"errors"
	"testing"

	"gotdm/core"
)

func TestCRC16Consistency(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}

	if CRC16(data) != CRC16(data) {
		t.Errorf("CRC16 not deterministic")
	}
	if CRC16(nil) != 0xFFFF {
		t.Errorf("CRC16(empty) = %04X, want FFFF", CRC16(nil))
	}
}

func TestCRC16Different(t *testing.T) {
	crc1 := CRC16([]byte{0x01, 0x02, 0x03})
	crc2 := CRC16([]byte{0x01, 0x02, 0x04})

	if crc1 == crc2 {
		t.Errorf("CRC16 collision: both inputs produced %04X", crc1)
	}
}

func captureFixture() Frame {
	var buf core.SampleBuffer
	for c := 0; c < 16; c++ {
		if c%2 == 0 {
			buf.Line[0].Channel[c] = 0x12345678
		} else {
			buf.Line[0].Channel[c] = int32(-0x76543211)
		}
	}
	return Capture(7, 1, 16, &buf)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	f := captureFixture()
	enc := f.Encode()

	got, n, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n != len(enc) {
		t.Errorf("Decode consumed %d bytes, want %d", n, len(enc))
	}
	if got.Seq != f.Seq || got.Lines != f.Lines || got.Chans != f.Chans {
		t.Errorf("header mismatch: got %d/%d/%d", got.Seq, got.Lines, got.Chans)
	}
	for i, s := range f.Samples {
		if got.Samples[i] != s {
			t.Errorf("sample %d = %#x, want %#x", i, got.Samples[i], s)
		}
	}
}

func TestDecodeSkipsLeadingSync(t *testing.T) {
	f := captureFixture()
	enc := append([]byte{SyncByte, SyncByte}, f.Encode()...)

	got, n, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n != len(enc) {
		t.Errorf("Decode consumed %d bytes, want %d", n, len(enc))
	}
	if got.Seq != f.Seq {
		t.Errorf("Seq = %d, want %d", got.Seq, f.Seq)
	}
}

func TestDecodeShortFrame(t *testing.T) {
	f := captureFixture()
	enc := f.Encode()

	_, _, err := Decode(enc[:len(enc)/2])
	if !errors.Is(err, ErrShortFrame) {
		t.Errorf("Decode(truncated) error = %v, want %v", err, ErrShortFrame)
	}
}

func TestDecodeRejectsCorruption(t *testing.T) {
	f := captureFixture()

	flipped := f.Encode()
	flipped[HeaderSize] ^= 0x01
	if _, _, err := Decode(flipped); !errors.Is(err, ErrBadCRC) {
		t.Errorf("Decode(bit flip) error = %v, want %v", err, ErrBadCRC)
	}

	noSync := f.Encode()
	noSync[len(noSync)-1] = 0x00
	if _, _, err := Decode(noSync); !errors.Is(err, ErrBadSync) {
		t.Errorf("Decode(no sync) error = %v, want %v", err, ErrBadSync)
	}

	badGeom := f.Encode()
	badGeom[3] = core.MaxLines + 1
	if _, _, err := Decode(badGeom); !errors.Is(err, ErrBadGeometry) {
		t.Errorf("Decode(bad geometry) error = %v, want %v", err, ErrBadGeometry)
	}

	badLen := f.Encode()
	badLen[0] = 0x01
	badLen[1] = 0x00
	if _, _, err := Decode(badLen); !errors.Is(err, ErrBadLength) {
		t.Errorf("Decode(bad length) error = %v, want %v", err, ErrBadLength)
	}
}
