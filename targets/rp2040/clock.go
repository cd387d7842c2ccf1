//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"
)

// RP2040 timer peripheral. The chip keeps a 64-bit microsecond counter
// running at 1MHz regardless of the system clock.
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08
	timerTIMERAWL = timerBase + 0x0C
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// microsNow returns the low 32 bits of the microsecond counter. Wraps every
// ~71 minutes; callers compare differences only.
func microsNow() uint32 {
	return timerRAWL.Get()
}

// uptimeMicros returns the full 64-bit microsecond counter. High word is
// read twice to detect a rollover mid-read.
func uptimeMicros() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}
