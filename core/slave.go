package core

// Controller states. One outer iteration per run, one inner iteration per
// frame.
type slaveState uint8

const (
	stateIdle slaveState = iota
	stateRunning
	stateRestarting
	stateShutdown
)

// nextState is the controller's transition function. Idle and Restarting
// both lead into Running after reconfiguration; Running leaves only on the
// application's restart decision; Shutdown is terminal.
func nextState(st slaveState, restart RestartSignal) slaveState {
	switch st {
	case stateIdle:
		return stateRunning
	case stateRunning:
		switch restart {
		case Restart:
			return stateRestarting
		case Shutdown:
			return stateShutdown
		}
		return stateRunning
	case stateRestarting:
		if restart == Shutdown {
			return stateShutdown
		}
		return stateRunning
	}
	return stateShutdown
}

// RunSlave runs a TDM slave on the given ports until the handler requests
// shutdown. The bit clock and frame sync are driven externally; spec fixes
// the frame geometry and cfg from Handler.Init fixes polarity and slot
// offset for each run.
//
// The call does not return while the bus runs. It returns an error only for
// configuration violations detected before the bus starts.
func RunSlave(h Handler, drv PortDriver, spec BusSpec) error {
	if err := spec.validate(); err != nil {
		return err
	}

	initSlavePorts(drv, &spec)

	bufs := &doubleBuffer{}
	ex := &exchanger{
		drv:      drv,
		spec:     &spec,
		frameLen: spec.frameLen(),
	}
	ex.workingRx, ex.workingTx = &bufs.rx[1], &bufs.tx[1]
	safeRx, safeTx := bufs.safe()

	numOut, numIn := len(spec.Dout), len(spec.Din)
	restart := NoRestart
	st := stateIdle

	for st != stateShutdown {
		// Idle or Restarting: configure a fresh run.
		mask := disableInterrupts()

		cfg := h.Init()
		drv.SetInvert(spec.Bclk, cfg.Polarity == SampleOnBclkFalling)
		ex.offset = cfg.Offset
		restart = NoRestart

		// Pre-roll: with outputs present the first frame's transmit
		// data must exist before the first preload, a full frame ahead
		// of its wire deadline.
		if numOut > 0 {
			h.Process(numOut, numIn, spec.NumChans, spec.NumDataBits,
				safeRx, safeTx)
		}
		drv.DisableTrigger(spec.Bclk)
		ex.workingRx, ex.workingTx, safeRx, safeTx = bufs.commit()

		drv.ClearBuffer(spec.Fsync)
		drv.StartClock(spec.Clk)
		ex.fsyncTime = holdForFrameSync(drv, spec.Fsync)
		ex.arm()

		restoreInterrupts(mask)

		padTo := ex.fsyncTime +
			PortTimestamp(ex.frameLen+ex.offset+PortBufferBits)
		for _, din := range spec.Din {
			drv.ClearBuffer(din)
			drv.SetTriggerTime(din, padTo)
		}
		for _, dout := range spec.Dout {
			drv.ClearBuffer(dout)
		}

		ex.preload()
		st = nextState(st, restart)

		for st == stateRunning {
			ex.fsyncTime = holdForFrameSync(drv, spec.Fsync)
			restart = h.RestartCheck()
			h.Process(numOut, numIn, spec.NumChans, spec.NumDataBits,
				safeRx, safeTx)
			ex.workingRx, ex.workingTx, safeRx, safeTx = bufs.commit()
			ex.preload()
			st = nextState(st, restart)
		}
	}
	return nil
}

// holdForFrameSync blocks until the frame-sync line goes high and returns
// the edge timestamp. This is the controller's only suspension point.
func holdForFrameSync(drv PortDriver, fsync Port) PortTimestamp {
	drv.WaitForPins(fsync, 1)
	return drv.TriggerTime(fsync)
}

func initSlavePorts(drv PortDriver, spec *BusSpec) {
	drv.EnableClockBlock(spec.Clk)
	drv.Reset(spec.Bclk)
	drv.SetClockSourcePort(spec.Clk, spec.Bclk)
	drv.SetClock(spec.Bclk, spec.Clk)

	drv.Enable(spec.Fsync)
	drv.SetClock(spec.Fsync, spec.Clk)

	for _, dout := range spec.Dout {
		drv.StartBuffered(dout, PortBufferBits)
		drv.SetClock(dout, spec.Clk)
		drv.ClearBuffer(dout)
		drv.Out(dout, 0)
	}
	for _, din := range spec.Din {
		drv.StartBuffered(din, PortBufferBits)
		drv.SetClock(din, spec.Clk)
		drv.ClearBuffer(din)
	}
}
