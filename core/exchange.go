package core

// exchanger is the time-critical half of the slave: the port trigger invokes
// service near each frame boundary, and the controller calls preload once per
// frame to stage the next transmit word.
//
// Only the first raw word per line is handled here. The port FIFOs are deep
// enough (PortBufferBits) that the remaining slots of a frame ride in
// hardware, which is what keeps this to one trigger per frame instead of one
// per word.
type exchanger struct {
	drv  PortDriver
	spec *BusSpec

	workingRx *SampleBuffer
	workingTx *SampleBuffer

	// fsyncTime is the timestamp of the most recent frame-sync edge,
	// maintained by the controller.
	fsyncTime PortTimestamp
	frameLen  uint32
	// offset is the configured slot offset, refreshed from Config each
	// run.
	offset uint32
}

// service runs at the scheduled trigger time. It must never block: disarm,
// capture the trigger timestamp, move the first words, re-arm one frame
// later. The bracketing guarantees the trigger is re-enabled on every exit.
func (e *exchanger) service() {
	e.drv.DisableTrigger(e.spec.Bclk)
	defer e.drv.EnableTrigger(e.spec.Bclk)

	now := e.drv.TriggerTime(e.spec.Bclk)
	e.drv.ClearTriggerTime(e.spec.Bclk)

	// Retrieve the first two received channel samples on every input
	// line. By now a full port word has landed in each line's buffer.
	for i, din := range e.spec.Din {
		a, b := Unpack16(e.drv.In(din))
		e.workingRx.Line[i].Channel[0] = a
		e.workingRx.Line[i].Channel[1] = b
	}

	// Schedule self to trigger at this time next frame.
	e.drv.SetTriggerTime(e.spec.Bclk, now+PortTimestamp(e.frameLen))
}

// preload stages the first transmit word of the working generation on every
// output line, due a full frame after the current frame-sync edge plus the
// slot offset. Staging a frame ahead is what keeps the output shifters from
// ever underrunning.
func (e *exchanger) preload() {
	due := e.fsyncTime + PortTimestamp(e.frameLen+e.offset)
	for i, dout := range e.spec.Dout {
		w := Pack16(e.workingTx.Line[i].Channel[0],
			e.workingTx.Line[i].Channel[1])
		e.drv.OutAtTime(dout, due, w)
	}
}

// arm installs service as the bit-clock port's trigger routine and schedules
// its first invocation: one frame past the recorded frame-sync edge, plus the
// slot offset, plus the port buffer depth, minus the service headroom.
// Thereafter the trigger is self-perpetuating via service.
func (e *exchanger) arm() {
	e.drv.SetTriggerHandler(e.spec.Bclk, e.service)
	e.drv.SetTriggerTime(e.spec.Bclk, e.fsyncTime+
		PortTimestamp(e.frameLen+e.offset+PortBufferBits-e.spec.overhead()))
	e.drv.EnableTrigger(e.spec.Bclk)
}
