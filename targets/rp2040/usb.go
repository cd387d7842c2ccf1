//go:build rp2040

package main

import (
	"machine"
)

// InitUSB initializes USB serial communication.
// On RP2040, machine.Serial is USB CDC, not a hardware UART.
func InitUSB() {
	err := machine.Serial.Configure(machine.UARTConfig{})
	if err != nil {
		return
	}
}

// writeUSB writes a complete buffer, retrying short writes. USB CDC on
// TinyGo can accept fewer bytes than offered when the host is slow.
func writeUSB(data []byte) {
	for len(data) > 0 {
		n, err := machine.Serial.Write(data)
		if err != nil {
			return
		}
		data = data[n:]
	}
}
