//go:build linux

package deeplink

import "github.com/hullshell/hull/internal/osexec"

func newBackend(runner osexec.CommandRunner) backend {
	return newDesktopEntryBackend(runner)
}
