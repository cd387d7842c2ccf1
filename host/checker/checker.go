// Package checker validates a TDM capture stream against a deterministic
// per-channel test pattern. It is the host half of a loopback test: a target
// runs the slave engine against a pattern-generating master and streams every
// received frame back over serial in wire format.
package checker

import (
	"errors"
	"fmt"
	"io"

	"gotdm/wire"
)

// Pattern computes the expected sample for a given frame, line and channel.
type Pattern func(frame int64, line, ch int) int32

// ReferencePattern is the reference transmit pattern: channel id in the top
// nibble, frame number below it.
func ReferencePattern(frame int64, line, ch int) int32 {
	return int32(ch)<<28 | int32(frame)
}

// ErrRestartDetected reports a sequence reset after frame zero. A slave that
// restarts once the bus is running has lost frame sync upstream, which the
// harness treats as fatal rather than recoverable.
var ErrRestartDetected = errors.New("checker: capture sequence restarted after frame zero")

// Checker consumes a capture byte stream and verifies frame sequencing and
// sample contents.
type Checker struct {
	lines, chans int
	pattern      Pattern

	buf     []byte
	started bool
	nextSeq uint8
	frame   int64

	// Frames is the number of frames checked, Mismatches the number of
	// samples that did not match the pattern, SeqGaps the number of
	// sequence discontinuities.
	Frames     int64
	Mismatches int
	SeqGaps    int

	// Faults holds the first few mismatch descriptions for reporting.
	Faults []string
}

const maxFaultDetail = 16

// New returns a Checker for a bus of the given geometry.
func New(lines, chans int, pattern Pattern) *Checker {
	return &Checker{lines: lines, chans: chans, pattern: pattern}
}

// Feed appends raw serial bytes and checks every complete frame found. It
// returns ErrRestartDetected if the capture sequence starts over mid-stream;
// sample mismatches are counted, not fatal.
func (c *Checker) Feed(data []byte) error {
	c.buf = append(c.buf, data...)

	for {
		f, n, err := wire.Decode(c.buf)
		switch {
		case err == nil:
			c.buf = c.buf[n:]
			if err := c.check(f); err != nil {
				return err
			}
		case errors.Is(err, wire.ErrShortFrame):
			return nil
		default:
			// Corrupt stream: drop up to the next sync byte and
			// resynchronize.
			c.SeqGaps++
			c.buf = c.buf[c.resyncOffset(n):]
		}
	}
}

// Run consumes r until EOF, feeding everything through the checker.
func (c *Checker) Run(r io.Reader) error {
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if ferr := c.Feed(chunk[:n]); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *Checker) resyncOffset(consumed int) int {
	for i := consumed + 1; i < len(c.buf); i++ {
		if c.buf[i] == wire.SyncByte {
			return i + 1
		}
	}
	return len(c.buf)
}

func (c *Checker) check(f wire.Frame) error {
	if int(f.Lines) != c.lines || int(f.Chans) != c.chans {
		c.fault(fmt.Sprintf("frame %d: geometry %dx%d, want %dx%d",
			c.frame, f.Lines, f.Chans, c.lines, c.chans))
		c.Mismatches++
		return nil
	}

	if c.started {
		if f.Seq != c.nextSeq {
			// A normal 255->0 wrap matches nextSeq and never lands
			// here; sequence zero out of order means the target
			// re-ran its init path.
			if f.Seq == 0 {
				return ErrRestartDetected
			}
			c.SeqGaps++
		}
	}
	c.started = true
	c.nextSeq = f.Seq + 1

	for l := 0; l < c.lines; l++ {
		for ch := 0; ch < c.chans; ch++ {
			got := f.Samples[l*c.chans+ch]
			want := c.pattern(c.frame, l, ch)
			if got != want {
				c.Mismatches++
				c.fault(fmt.Sprintf("frame %d line %d ch %d: %#08x, want %#08x",
					c.frame, l, ch, uint32(got), uint32(want)))
			}
		}
	}
	c.Frames++
	c.frame++
	return nil
}

func (c *Checker) fault(s string) {
	if len(c.Faults) < maxFaultDetail {
		c.Faults = append(c.Faults, s)
	}
}

// Summary formats the check outcome for display.
func (c *Checker) Summary() string {
	return fmt.Sprintf("%d frames checked, %d sample mismatches, %d sequence gaps",
		c.Frames, c.Mismatches, c.SeqGaps)
}
