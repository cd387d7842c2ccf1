//go:build rp2040

package main

// PIO shift programs for one TDM data line. Both run entirely off the
// external bit clock and frame sync via wait instructions.
//
// Transmit, per frame:
//  1. Wait for the frame-sync rising edge.
//  2. Sit out the slot offset in bit-clock cycles.
//  3. Shift 32 bits out of the OSR, LSB first, launched on the trailing
//     bit-clock edge (autopull refills from the TX FIFO).
//  4. Wait for frame sync to drop so the next edge starts a new frame.
//
// Receive mirrors this with the sampling edge and an ISR push. Only the
// first 32 bits of each frame are captured, which is the word the frame
// engine consumes; the rest of the frame passes by unobserved.

import (
	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// maxSlotOffset keeps both programs inside the PIO block's 32-instruction
// memory. Each offset tick costs two wait instructions per program.
const maxSlotOffset = 4

// Jump targets are encoded program-relative; AddProgram patches in the load
// offset.
func buildShiftOut(bclk, fsync uint8, offset uint32, invert bool) []uint16 {
	launch, idle := false, true
	if invert {
		launch, idle = true, false
	}
	prog := []uint16{rp2pio.EncodeWaitGPIO(true, fsync)}
	for i := uint32(0); i < offset; i++ {
		prog = append(prog,
			rp2pio.EncodeWaitGPIO(idle, bclk),
			rp2pio.EncodeWaitGPIO(launch, bclk))
	}
	prog = append(prog,
		rp2pio.EncodeSet(rp2pio.SrcDestX, 31),
		// bit loop
		rp2pio.EncodeWaitGPIO(idle, bclk),
		rp2pio.EncodeWaitGPIO(launch, bclk),
		rp2pio.EncodeOut(rp2pio.SrcDestPins, 1),
		rp2pio.EncodeJmp(uint8(len(prog))+1, rp2pio.JmpXNZeroDec),
		rp2pio.EncodeWaitGPIO(false, fsync))
	return prog
}

func buildShiftIn(bclk, fsync uint8, offset uint32, invert bool) []uint16 {
	sample, idle := true, false
	if invert {
		sample, idle = false, true
	}
	prog := []uint16{rp2pio.EncodeWaitGPIO(true, fsync)}
	for i := uint32(0); i < offset; i++ {
		prog = append(prog,
			rp2pio.EncodeWaitGPIO(idle, bclk),
			rp2pio.EncodeWaitGPIO(sample, bclk))
	}
	prog = append(prog,
		rp2pio.EncodeSet(rp2pio.SrcDestX, 31),
		// bit loop
		rp2pio.EncodeWaitGPIO(idle, bclk),
		rp2pio.EncodeWaitGPIO(sample, bclk),
		rp2pio.EncodeIn(rp2pio.SrcDestPins, 1),
		rp2pio.EncodeJmp(uint8(len(prog))+1, rp2pio.JmpXNZeroDec),
		rp2pio.EncodeWaitGPIO(false, fsync))
	return prog
}

// loadPrograms installs both shift programs and (re)initializes every data
// line's state machine against them. Safe to call again; it rebuilds only
// when the bit-clock polarity changed.
func (d *PIOPortDriver) loadPrograms(invert bool) {
	if d.loaded {
		return
	}

	offset := d.pins.SlotOffset
	if offset > maxSlotOffset {
		offset = maxSlotOffset
	}
	bclk, fsync := uint8(d.pins.Bclk), uint8(d.pins.Fsync)

	out := buildShiftOut(bclk, fsync, offset, invert)
	in := buildShiftIn(bclk, fsync, offset, invert)

	// Reloading the whole instruction memory is simpler than patching the
	// previous polarity's programs in place.
	d.pio.ClearProgramSection(0, 32)
	outAt, err := d.pio.AddProgram(out, -1)
	if err != nil {
		panic(err.Error())
	}
	inAt, err := d.pio.AddProgram(in, -1)
	if err != nil {
		panic(err.Error())
	}
	d.loadedAt = [2]uint8{outAt, inAt}

	for i := range d.ports {
		st := &d.ports[i]
		if !st.hasSM {
			continue
		}
		cfg := rp2pio.DefaultStateMachineConfig()
		if st.out {
			cfg.SetOutPins(st.pin, 1)
			// Shift right so bit 0 leaves the wire first.
			cfg.SetOutShift(true, true, 32)
			cfg.SetWrap(outAt, outAt+uint8(len(out))-1)
		} else {
			cfg.SetInPins(st.pin)
			// Shift right so the first sampled bit lands in bit 0.
			cfg.SetInShift(true, true, 32)
			cfg.SetWrap(inAt, inAt+uint8(len(in))-1)
		}
		// Full system clock; the wait instructions do all pacing.
		cfg.SetClkDivIntFrac(1, 0)
		origin := outAt
		if !st.out {
			origin = inAt
		}
		st.sm.Init(origin, cfg)
	}
	d.loaded = true
}
