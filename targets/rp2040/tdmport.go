//go:build rp2040

package main

// PIO TDM port backend using tinygo-org/pio package
// Each data line gets its own state machine; the externally driven bit
// clock and frame sync pace the programs, so no RP2040 clock resource is
// consumed beyond the PIO block itself.

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"gotdm/core"
)

// BusPins describes the physical wiring of one TDM bus.
//
// FrameBits and SlotOffset must match the BusSpec geometry and the
// Config.Offset the handler returns: the PIO programs bake both in, while
// the frame engine schedules against its own copy. The two are reconciled
// here rather than plumbed through the port interface.
type BusPins struct {
	Bclk  machine.Pin
	Fsync machine.Pin
	Dout  []machine.Pin
	Din   []machine.Pin

	FrameBits  uint32
	SlotOffset uint32
}

type portState struct {
	pin machine.Pin

	// Data lines run a state machine; bclk and fsync are plain inputs.
	sm    rp2pio.StateMachine
	hasSM bool
	out   bool

	invert bool

	// Software trigger bookkeeping. The engine schedules one trigger per
	// frame; it is serviced from WaitForPins once its deadline falls
	// inside the newly started frame.
	trigFn      func()
	trigTime    core.PortTimestamp
	trigSet     bool
	trigEnabled bool

	lastEvent core.PortTimestamp
}

// PIOPortDriver implements core.PortDriver on RP2040 PIO state machines.
//
// Port timestamps are counted in bit-clock ticks at frame granularity: the
// counter advances by FrameBits on each frame-sync edge observed in
// WaitForPins. Sub-frame timing lives in the PIO programs, which hold each
// transfer until the slot offset after the frame-sync edge, so OutAtTime
// reduces to a FIFO put and In blocks on the receive FIFO.
type PIOPortDriver struct {
	pio   *rp2pio.PIO
	pins  BusPins
	ports []portState

	ticks    core.PortTimestamp
	synced   bool
	loaded   bool
	loadedAt [2]uint8 // program offsets: out, in
}

// NewPIOPortDriver claims state machines on the given PIO block for every
// data line in pins. It does not touch the hardware until StartClock.
func NewPIOPortDriver(p *rp2pio.PIO, pins BusPins) (*PIOPortDriver, error) {
	d := &PIOPortDriver{pio: p, pins: pins}

	d.ports = append(d.ports,
		portState{pin: pins.Bclk},
		portState{pin: pins.Fsync})
	for _, pin := range pins.Dout {
		sm, err := p.ClaimStateMachine()
		if err != nil {
			return nil, err
		}
		d.ports = append(d.ports, portState{pin: pin, sm: sm, hasSM: true, out: true})
	}
	for _, pin := range pins.Din {
		sm, err := p.ClaimStateMachine()
		if err != nil {
			return nil, err
		}
		d.ports = append(d.ports, portState{pin: pin, sm: sm, hasSM: true})
	}
	return d, nil
}

// Port handles for building the core.BusSpec around this driver.

func (d *PIOPortDriver) BclkPort() core.Port  { return core.Port(0) }
func (d *PIOPortDriver) FsyncPort() core.Port { return core.Port(1) }

func (d *PIOPortDriver) DoutPorts() []core.Port {
	ports := make([]core.Port, len(d.pins.Dout))
	for i := range ports {
		ports[i] = core.Port(2 + i)
	}
	return ports
}

func (d *PIOPortDriver) DinPorts() []core.Port {
	ports := make([]core.Port, len(d.pins.Din))
	for i := range ports {
		ports[i] = core.Port(2 + len(d.pins.Dout) + i)
	}
	return ports
}

func (d *PIOPortDriver) state(p core.Port) *portState { return &d.ports[p] }

// Clock block handling. The bit clock arrives on a GPIO and paces the PIO
// programs through wait instructions, so the clock block identity carries no
// hardware state here; StartClock is where the state machines come up.

func (d *PIOPortDriver) EnableClockBlock(clk core.ClockBlock)  {}
func (d *PIOPortDriver) DisableClockBlock(clk core.ClockBlock) {}

func (d *PIOPortDriver) SetClockSourcePort(clk core.ClockBlock, p core.Port) {}

// StartClock loads the shift programs and launches every data line's state
// machine. On a restart it reuses the loaded programs unless the bit-clock
// polarity changed since the previous run.
func (d *PIOPortDriver) StartClock(clk core.ClockBlock) {
	invert := d.state(d.BclkPort()).invert
	d.loadPrograms(invert)

	for i := range d.ports {
		st := &d.ports[i]
		if !st.hasSM {
			continue
		}
		st.sm.SetEnabled(false)
		st.sm.ClearFIFOs()
		st.sm.Restart()
		origin := d.loadedAt[0]
		if !st.out {
			origin = d.loadedAt[1]
		}
		st.sm.Exec(rp2pio.EncodeJmp(origin, rp2pio.JmpAlways))
		st.sm.SetEnabled(true)
	}
	d.synced = false
}

func (d *PIOPortDriver) Enable(p core.Port) {
	d.state(p).pin.Configure(machine.PinConfig{Mode: machine.PinInput})
}

func (d *PIOPortDriver) Disable(p core.Port) {
	st := d.state(p)
	if st.hasSM {
		st.sm.SetEnabled(false)
	}
}

func (d *PIOPortDriver) Reset(p core.Port) {
	d.Enable(p)
}

func (d *PIOPortDriver) StartBuffered(p core.Port, transferBits uint32) {
	st := d.state(p)
	mode := machine.PinConfig{Mode: d.pio.PinMode()}
	st.pin.Configure(mode)
	if st.out {
		st.sm.SetPindirsConsecutive(st.pin, 1, true)
	} else {
		st.sm.SetPindirsConsecutive(st.pin, 1, false)
	}
}

func (d *PIOPortDriver) SetClock(p core.Port, clk core.ClockBlock) {}

func (d *PIOPortDriver) SetInvert(p core.Port, invert bool) {
	st := d.state(p)
	if st.invert != invert {
		st.invert = invert
		// Force a program rebuild on the next StartClock.
		d.loaded = false
	}
}

func (d *PIOPortDriver) ClearBuffer(p core.Port) {
	st := d.state(p)
	if st.hasSM {
		st.sm.ClearFIFOs()
	}
}

// In blocks until a full word has been shifted in. On a plain input port it
// instead reports the current pin level in bit 0.
func (d *PIOPortDriver) In(p core.Port) uint32 {
	st := d.state(p)
	if !st.hasSM {
		if st.pin.Get() != st.invert {
			return 1
		}
		return 0
	}
	for st.sm.IsRxFIFOEmpty() {
	}
	return st.sm.RxGet()
}

func (d *PIOPortDriver) Out(p core.Port, word uint32) {
	st := d.state(p)
	if !st.hasSM {
		return
	}
	for st.sm.IsTxFIFOFull() {
	}
	st.sm.TxPut(word)
}

// OutAtTime stages a word for the next frame. The shift program holds the
// transfer until the slot offset after the frame-sync edge, so the deadline
// needs no handling beyond FIFO order.
func (d *PIOPortDriver) OutAtTime(p core.Port, t core.PortTimestamp, word uint32) {
	d.Out(p, word)
}

// WaitForPins blocks until the port's pin equals value. Waiting on the
// frame-sync line doubles as the frame clock: each matched rising edge
// advances the tick counter by one frame and services any trigger whose
// deadline has come due.
func (d *PIOPortDriver) WaitForPins(p core.Port, value uint32) uint32 {
	st := d.state(p)
	want := value != 0

	// Edge, not level: let a still-asserted previous match drain first.
	for st.pin.Get() != st.invert == want {
	}
	for st.pin.Get() != st.invert != want {
	}

	if d.synced {
		d.ticks += core.PortTimestamp(d.pins.FrameBits)
	}
	d.synced = true
	st.lastEvent = d.ticks

	d.fireDueTriggers(d.ticks +
		core.PortTimestamp(d.pins.SlotOffset+core.PortBufferBits))
	return value
}

// fireDueTriggers runs every armed trigger whose deadline is at or before
// limit. The handler's In call then blocks on the receive FIFO until the
// shifter delivers the frame's word, which reproduces the trigger landing
// just after the data does.
func (d *PIOPortDriver) fireDueTriggers(limit core.PortTimestamp) {
	for i := range d.ports {
		st := &d.ports[i]
		if !st.trigEnabled || !st.trigSet || st.trigFn == nil {
			continue
		}
		if int32(st.trigTime-limit) > 0 {
			continue
		}
		st.lastEvent = st.trigTime
		st.trigSet = false
		st.trigFn()
	}
}

func (d *PIOPortDriver) TriggerTime(p core.Port) core.PortTimestamp {
	return d.state(p).lastEvent
}

func (d *PIOPortDriver) SetTriggerTime(p core.Port, t core.PortTimestamp) {
	st := d.state(p)
	st.trigTime = t
	st.trigSet = true
}

func (d *PIOPortDriver) ClearTriggerTime(p core.Port) {
	d.state(p).trigSet = false
}

func (d *PIOPortDriver) SetTriggerHandler(p core.Port, fn func()) {
	d.state(p).trigFn = fn
}

func (d *PIOPortDriver) EnableTrigger(p core.Port) {
	d.state(p).trigEnabled = true
}

func (d *PIOPortDriver) DisableTrigger(p core.Port) {
	d.state(p).trigEnabled = false
}
