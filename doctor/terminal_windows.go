//go:build windows

package doctor

import (
	"os"
	"os/signal"
)

func resetTerminal() {
	// Nothing to reset on Windows.
}

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		println("\ninterrupted")
		os.Exit(1)
	}()
}
