package core

// doubleBuffer holds two generations of receive and transmit sample blocks.
// Each frame exactly one generation per direction is "working" (owned by the
// exchange engine, filled word by word as the wire moves) and the other is
// "safe" (owned by the controller and application, fully formed). The roles
// swap once per frame via commit.
//
// The generation index is explicit instance state so that independent slave
// instances never collide.
type doubleBuffer struct {
	rx [2]SampleBuffer
	tx [2]SampleBuffer

	// next is the generation handed out as working by the next commit.
	next uint8
}

// safe returns the current safe generation without swapping roles. Used for
// the pre-roll Process call before the first commit of a run.
func (d *doubleBuffer) safe() (rx, tx *SampleBuffer) {
	return &d.rx[d.next], &d.tx[d.next]
}

// commit swaps the generation roles and returns the new assignment. It must
// be called exactly once per frame, and only at a point where the exchange
// engine is known to be idle: that ordering, not a lock, is the entire
// synchronization between the time-critical path and the application.
func (d *doubleBuffer) commit() (workRx, workTx, safeRx, safeTx *SampleBuffer) {
	workRx = &d.rx[d.next]
	workTx = &d.tx[d.next]
	d.next ^= 1 // flip to the other of the double buffers
	safeRx = &d.rx[d.next]
	safeTx = &d.tx[d.next]
	return workRx, workTx, safeRx, safeTx
}
