// Windows shutdown signals.
//
// Windows delivers only os.Interrupt (Ctrl+C / Ctrl+Break) to console
// programs through os/signal.

//go:build windows

package main

import "os"

// shutdownSignals returns the signals that cancel the run context.
func shutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
