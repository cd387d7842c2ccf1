// Package core implements a slave-mode driver for a TDM digital audio bus.
//
// The driver exchanges one block of channel samples per frame with the
// application, synchronized to an externally driven bit clock and frame-sync
// pulse. Hardware access goes through the PortDriver interface so the same
// engine runs on real ports or on a simulated bus in tests.
package core

import "errors"

// Compile-time maxima for the sample containers. The bus may be configured
// narrower, but never wider.
const (
	MaxChans = 16
	MaxLines = 4
)

// PortBufferBits is the combined depth, in bits, of a data port's transfer
// register plus shift register. The exchange trigger is scheduled this many
// bit clocks after the first slot so that a full port word has landed by the
// time the service routine reads it.
const PortBufferBits = 32

// DefaultInterruptOverhead is the headroom, in bit-clock cycles, reserved for
// the exchange service routine itself. Raising PortBufferBits requires
// re-deriving this margin.
const DefaultInterruptOverhead = 3

var (
	ErrTooManyChannels     = errors.New("tdm: channel count exceeds MaxChans")
	ErrTooManyLines        = errors.New("tdm: line count exceeds MaxLines")
	ErrUnsupportedDataBits = errors.New("tdm: unsupported bits per channel")
	ErrNoFrameGeometry     = errors.New("tdm: channel count and data bits must be non-zero")
)

// BclkPolarity selects which bit-clock edge the slave samples on.
//
// TDM is positive by convention: data and fsync toggle on the falling edge
// and are sampled on the rising edge. Some masters have it the other way
// around.
type BclkPolarity uint8

const (
	// SampleOnBclkRising toggles falling, samples rising (default).
	SampleOnBclkRising BclkPolarity = iota
	// SampleOnBclkFalling toggles rising, samples falling.
	SampleOnBclkFalling
)

// Config describes the bus parameters the application selects at the start of
// each run. It is produced fresh by Handler.Init on every run and is never
// mutated by the engine.
type Config struct {
	// MclkBclkRatio is the ratio between the master clock and bit clock.
	MclkBclkRatio uint32
	// Polarity is the slave sampling edge.
	Polarity BclkPolarity
	// Offset is the delay, in bit-clock cycles, between the frame-sync
	// rising edge and the first channel slot.
	Offset uint32
}

// RestartSignal is sampled from the application once per frame and drives the
// controller's state transitions.
type RestartSignal uint8

const (
	// NoRestart continues the current run.
	NoRestart RestartSignal = iota
	// Restart stops the bus and re-runs Init, allowing reconfiguration.
	Restart
	// Shutdown causes the slave task to exit.
	Shutdown
)

// SampleBuffer holds one frame's samples for every line, as signed 32-bit
// values. For sub-32-bit bus widths only the low NumDataBits bits of each
// sample are meaningful; the rest are undefined on receive and ignored on
// transmit. Dimensions are fixed at the compile-time maxima regardless of the
// configured bus width.
type SampleBuffer struct {
	Line [MaxLines]struct {
		Channel [MaxChans]int32
	}
}

// Handler is the capability interface the application implements. The
// controller calls Init at the start of every run, RestartCheck once per
// frame, and Process once per frame with the previous frame's received
// samples and a buffer to fill with the next frame's transmit samples.
//
// Process may run for up to one full frame before the next frame-sync edge.
// It runs concurrently with the exchange engine servicing the immediately
// following frame's first words; the double buffering below makes that safe.
// Overrunning the frame budget is a contract violation the engine does not
// detect: the wire simply carries stale data.
type Handler interface {
	Init() Config
	RestartCheck() RestartSignal
	Process(numOut, numIn, numChans, numDataBits int, rx, tx *SampleBuffer)
}

// BusSpec identifies the hardware resources and frame geometry for one slave
// instance. Geometry is fixed for the lifetime of a run; only a restart may
// change it.
type BusSpec struct {
	// Dout and Din are the data output and input ports, at most MaxLines
	// each. Either may be empty.
	Dout []Port
	Din  []Port

	// NumChans is the channel count per line, NumDataBits the bits per
	// channel. Only 16 data bits are supported by the packed exchange
	// path; see RunSlaveTx for the 32-bit whole-frame variant.
	NumChans    int
	NumDataBits int

	Bclk  Port
	Fsync Port
	Clk   ClockBlock

	// InterruptOverhead is the bit-clock headroom reserved for the
	// exchange service routine. Zero selects DefaultInterruptOverhead.
	InterruptOverhead uint32
}

func (s *BusSpec) validate() error {
	if s.NumChans > MaxChans {
		return ErrTooManyChannels
	}
	if len(s.Dout) > MaxLines || len(s.Din) > MaxLines {
		return ErrTooManyLines
	}
	if s.NumChans <= 0 || s.NumDataBits <= 0 {
		return ErrNoFrameGeometry
	}
	if s.NumDataBits != 16 {
		// 8, 24 and 32 bit packed paths have no codec; reject rather
		// than miscompute.
		return ErrUnsupportedDataBits
	}
	return nil
}

// frameLen is the frame length in bit-clock cycles.
func (s *BusSpec) frameLen() uint32 {
	return uint32(s.NumChans) * uint32(s.NumDataBits)
}

func (s *BusSpec) overhead() uint32 {
	if s.InterruptOverhead == 0 {
		return DefaultInterruptOverhead
	}
	return s.InterruptOverhead
}
