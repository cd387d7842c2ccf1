//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks preemption and returns the previous state.
// The controller brackets run reconfiguration with this so the exchange
// trigger cannot fire while buffers and trigger times are being rebuilt.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the preemption state.
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
