//go:build windows

package osinfo

import (
	"context"
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/hullshell/hull/internal/osexec"
)

// platformVersion reports the NT version triplet. RtlGetNtVersionNumbers
// bypasses the manifest-based compatibility lies of GetVersionEx.
func platformVersion(context.Context, osexec.CommandRunner) (string, error) {
	major, minor, build := windows.RtlGetNtVersionNumbers()
	return fmt.Sprintf("%d.%d.%d", major, minor, build), nil
}
