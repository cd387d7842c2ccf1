package core

// Port identifies a hardware I/O line.
type Port uint32

// ClockBlock identifies a hardware clock resource a port can be bound to.
type ClockBlock uint32

// PortTimestamp is a time value in bit-clock cycles as counted by a port's
// own counter. It wraps; only differences are meaningful.
type PortTimestamp uint32

// PortDriver is the abstract port interface the frame engine uses.
// Platform-specific implementations handle actual hardware control; tests
// supply a simulated bus.
//
// Word transfers are serial: a buffered port shifts bit 0 first. Failures at
// this layer are not translated by the engine; implementations propagate
// their own failure mode.
type PortDriver interface {
	// EnableClockBlock powers up a clock block.
	EnableClockBlock(clk ClockBlock)
	// DisableClockBlock releases a clock block.
	DisableClockBlock(clk ClockBlock)
	// SetClockSourcePort drives a clock block from the signal on a port.
	SetClockSourcePort(clk ClockBlock, p Port)
	// StartClock starts a clock block running.
	StartClock(clk ClockBlock)

	// Enable activates a port for unbuffered single-bit I/O.
	Enable(p Port)
	// Disable releases a port.
	Disable(p Port)
	// Reset returns a port to its just-enabled state.
	Reset(p Port)
	// StartBuffered activates a port for buffered serial I/O with the
	// given transfer width in bits.
	StartBuffered(p Port, transferBits uint32)
	// SetClock paces a port's transfers from a clock block.
	SetClock(p Port, clk ClockBlock)
	// SetInvert inverts (or un-inverts) the signal seen on a port.
	SetInvert(p Port, invert bool)
	// ClearBuffer discards any data held in a port's transfer and shift
	// registers.
	ClearBuffer(p Port)

	// In blocks until a full word has been shifted in and returns it.
	In(p Port) uint32
	// Out queues one word to be shifted out.
	Out(p Port, word uint32)
	// OutAtTime queues one word to start shifting out when the port
	// counter reaches t.
	OutAtTime(p Port, t PortTimestamp, word uint32)
	// WaitForPins blocks until the port's pins equal value and returns
	// the sampled pins. The matching edge's timestamp is then available
	// from TriggerTime.
	WaitForPins(p Port, value uint32) uint32

	// TriggerTime reports the port counter value captured at the most
	// recent trigger or pin-match event.
	TriggerTime(p Port) PortTimestamp
	// SetTriggerTime schedules the port's next transfer, or its trigger
	// callback, for counter value t.
	SetTriggerTime(p Port, t PortTimestamp)
	// ClearTriggerTime cancels a pending trigger time.
	ClearTriggerTime(p Port)

	// SetTriggerHandler installs fn as the routine invoked when the
	// port's trigger fires. The handler preempts whatever the caller is
	// doing, at most once per scheduled trigger.
	SetTriggerHandler(p Port, fn func())
	// EnableTrigger arms the installed trigger.
	EnableTrigger(p Port)
	// DisableTrigger disarms the installed trigger.
	DisableTrigger(p Port)
}
