//go:build darwin

package host

import "runtime"

func init() {
	// macOS UI facilities expect calls from the first thread. Pin the main
	// goroutine to it before anything else schedules.
	runtime.LockOSThread()
}
