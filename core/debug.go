package core

// DebugWriter is a function type for writing debug messages.
type DebugWriter func(string)

// debugPrintln is the injected debug sink. No-op by default: the engine
// itself never logs on the frame path, but target and host code can route
// non-critical diagnostics (fsync errors, restart notices) somewhere useful.
var debugPrintln DebugWriter = func(s string) {}

// SetDebugWriter sets the platform-specific debug output function.
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}
