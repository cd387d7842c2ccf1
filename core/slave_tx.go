package core

// The whole-frame transmit-only slave. Unlike the packed engine in slave.go
// it moves full 32-bit channel words and pushes an entire frame into the
// output port's buffer in one go each frame, so no per-frame trigger is
// needed at all. The frame sync is read back through its own buffered port
// and checked for the expected rising-edge pattern.

// TxWordLen is the slot width of the whole-frame transmit path. Every
// channel occupies a full 32-bit word on the wire.
const TxWordLen = 32

// fsyncRisePattern is the shape the buffered frame-sync port must show each
// frame: one-cycle-high pulse arriving in the top bits of the sampled word.
const (
	fsyncSampleMask  uint32 = 0xc0000000
	fsyncRisePattern uint32 = 0x80000000
)

// TxHandler is the capability interface for the transmit-only slave. Init
// runs at the start of every run; Send must fill samples (one per channel)
// with the next frame's data; RestartCheck is sampled once per frame.
type TxHandler interface {
	Init()
	RestartCheck() RestartSignal
	Send(samples []int32)
}

// TxSpec identifies the hardware resources and geometry for a transmit-only
// slave. All slots are TxWordLen bits wide.
type TxSpec struct {
	Dout  Port
	Fsync Port
	Bclk  Port
	Clk   ClockBlock

	// TxOffset is the delay in bit-clock cycles between the frame-sync
	// rising edge and the first channel slot.
	TxOffset uint32
	Polarity BclkPolarity

	// ChansPerFrame is the number of 32-bit channel slots per frame.
	ChansPerFrame int
}

func (s *TxSpec) validate() error {
	if s.ChansPerFrame <= 0 {
		return ErrNoFrameGeometry
	}
	if s.ChansPerFrame > MaxChans {
		return ErrTooManyChannels
	}
	return nil
}

// frameLen is the frame length in bit-clock cycles.
func (s *TxSpec) frameLen() uint32 {
	return uint32(s.ChansPerFrame) * TxWordLen
}

// RunSlaveTx runs a transmit-only TDM slave until the handler requests
// shutdown. A frame-sync readback that does not show the expected rising
// edge ends the run the same way an application restart does: the bus is
// re-initialized from scratch.
func RunSlaveTx(h TxHandler, drv PortDriver, spec TxSpec) error {
	if err := spec.validate(); err != nil {
		return err
	}

	samples := make([]int32, spec.ChansPerFrame)
	frameLen := spec.frameLen()

	for {
		h.Init()
		initTxPorts(drv, &spec)

		// Get first frame data.
		h.Send(samples)

		// Hold for the first frame-sync rising edge.
		drv.WaitForPins(spec.Fsync, 0)
		drv.WaitForPins(spec.Fsync, 1)
		edge := drv.TriggerTime(spec.Fsync)

		// Pace the fsync readback one word per frame, and hold the
		// first data word until its slot comes around.
		drv.SetTriggerTime(spec.Fsync,
			edge+PortTimestamp(frameLen+TxWordLen)-1)
		drv.SetTriggerTime(spec.Dout,
			edge+PortTimestamp(frameLen+spec.TxOffset))
		for _, s := range samples {
			drv.Out(spec.Dout, PackWord(s))
		}

		for {
			if drv.In(spec.Fsync)&fsyncSampleMask != fsyncRisePattern {
				debugPrintln("tdm tx: fsync pattern error, resyncing")
				break
			}

			h.Send(samples)
			for _, s := range samples {
				drv.Out(spec.Dout, PackWord(s))
			}

			restart := h.RestartCheck()
			if restart == Restart {
				break
			}
			if restart == Shutdown {
				deinitTxPorts(drv, &spec)
				return nil
			}
		}
		deinitTxPorts(drv, &spec)
	}
}

func initTxPorts(drv PortDriver, spec *TxSpec) {
	drv.Enable(spec.Bclk)
	drv.EnableClockBlock(spec.Clk)
	drv.SetClockSourcePort(spec.Clk, spec.Bclk)

	drv.StartBuffered(spec.Dout, TxWordLen)
	drv.SetClock(spec.Dout, spec.Clk)
	drv.ClearBuffer(spec.Dout)

	drv.StartBuffered(spec.Fsync, TxWordLen)
	drv.SetClock(spec.Fsync, spec.Clk)
	drv.ClearBuffer(spec.Fsync)

	drv.SetInvert(spec.Bclk, spec.Polarity == SampleOnBclkFalling)
	drv.StartClock(spec.Clk)
}

func deinitTxPorts(drv PortDriver, spec *TxSpec) {
	drv.DisableClockBlock(spec.Clk)
	drv.Disable(spec.Bclk)
	drv.Disable(spec.Dout)
	drv.Disable(spec.Fsync)
}
