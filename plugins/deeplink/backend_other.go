//go:build !linux && !windows

package deeplink

import (
	"context"

	"github.com/hullshell/hull/internal/osexec"
)

// newBackend returns the stub for platforms where scheme ownership is
// declared in bundle or store metadata instead of a runtime call.
func newBackend(_ osexec.CommandRunner) backend {
	return unsupportedBackend{}
}

type unsupportedBackend struct{}

func (unsupportedBackend) registerAll(context.Context, appInfo, []string) error {
	return ErrUnsupported
}

func (unsupportedBackend) unregisterAll(context.Context, appInfo, []string) error {
	return ErrUnsupported
}

func (unsupportedBackend) isRegistered(context.Context, appInfo, string) (bool, error) {
	return false, ErrUnsupported
}
