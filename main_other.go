//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// Hotkey registration must happen on the process main thread on
	// macOS and Windows.
	mainthread.Init(run)
}
