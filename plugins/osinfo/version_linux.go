//go:build linux

package osinfo

import (
	"context"

	"golang.org/x/sys/unix"

	"github.com/hullshell/hull/internal/osexec"
)

// platformVersion reports the kernel release from uname(2).
func platformVersion(_ context.Context, _ osexec.CommandRunner) (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(uts.Release[:]), nil
}
