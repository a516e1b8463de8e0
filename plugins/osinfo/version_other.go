//go:build !linux && !darwin && !windows

package osinfo

import (
	"context"

	"github.com/hullshell/hull/internal/osexec"
)

func platformVersion(context.Context, osexec.CommandRunner) (string, error) {
	return "", nil
}
