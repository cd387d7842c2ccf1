//go:build rp2040

// TDM slave capture firmware for the Raspberry Pi Pico.
//
// The PIO block shifts one word per frame on each data line while the frame
// engine runs in the main goroutine. Every captured frame is framed with the
// wire codec and streamed over USB CDC for the host-side checker; the
// transmit line echoes the previous frame back for loopback testing.
package main

import (
	"machine"
	"time"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"gotdm/core"
	"gotdm/wire"
)

// Bus wiring. BCLK and FSYNC come from the external TDM master.
const (
	pinBclk  = machine.GP10
	pinFsync = machine.GP11
	pinDout  = machine.GP12
	pinDin   = machine.GP13

	numChans    = 16
	numDataBits = 16
	slotOffset  = 1

	// One frame engine capture is two channels deep per line.
	captureChans = 2
)

// streamQ decouples the frame engine from USB. Process drops frames when
// the host falls behind rather than stalling the bus.
var streamQ = make(chan []byte, 32)

var framesDropped uint32

type captureHandler struct {
	seq uint8
}

func (h *captureHandler) Init() core.Config {
	return core.Config{
		Polarity: core.SampleOnBclkRising,
		Offset:   slotOffset,
	}
}

func (h *captureHandler) RestartCheck() core.RestartSignal {
	return core.NoRestart
}

func (h *captureHandler) Process(numOut, numIn, chans, dataBits int, rx, tx *core.SampleBuffer) {
	// Echo the captured word back out on the next frame.
	for l := 0; l < numOut && l < numIn; l++ {
		tx.Line[l].Channel[0] = rx.Line[l].Channel[0]
		tx.Line[l].Channel[1] = rx.Line[l].Channel[1]
	}

	f := wire.Capture(h.seq, numIn, captureChans, rx)
	h.seq++
	select {
	case streamQ <- f.Encode():
	default:
		framesDropped++
	}
}

func streamerLoop() {
	for data := range streamQ {
		writeUSB(data)
	}
}

func main() {
	// Clear any watchdog state left over from a previous reset.
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()

	// Give the host a moment to enumerate the CDC device.
	time.Sleep(500 * time.Millisecond)

	core.SetDebugWriter(func(s string) { println(s) })

	drv, err := NewPIOPortDriver(rp2pio.PIO0, BusPins{
		Bclk:       pinBclk,
		Fsync:      pinFsync,
		Dout:       []machine.Pin{pinDout},
		Din:        []machine.Pin{pinDin},
		FrameBits:  numChans * numDataBits,
		SlotOffset: slotOffset,
	})
	if err != nil {
		println("pio init failed:", err.Error())
		return
	}

	spec := core.BusSpec{
		Dout:        drv.DoutPorts(),
		Din:         drv.DinPorts(),
		NumChans:    numChans,
		NumDataBits: numDataBits,
		Bclk:        drv.BclkPort(),
		Fsync:       drv.FsyncPort(),
	}

	go streamerLoop()

	start := uptimeMicros()
	println("tdm slave up at", uint32(start/1000), "ms")

	if err := core.RunSlave(&captureHandler{}, drv, spec); err != nil {
		println("bus config error:", err.Error())
	}
}
