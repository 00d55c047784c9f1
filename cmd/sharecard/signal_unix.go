// Unix/Darwin shutdown signals.
//
// Both SIGINT (Ctrl+C) and SIGTERM stop a watch session or cancel scenes
// not yet rendered.

//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals returns the signals that cancel the run context.
func shutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
