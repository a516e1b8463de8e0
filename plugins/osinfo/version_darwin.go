//go:build darwin

package osinfo

import (
	"context"
	"strings"

	"github.com/hullshell/hull/internal/osexec"
)

// platformVersion reports the macOS product version via sw_vers.
func platformVersion(ctx context.Context, runner osexec.CommandRunner) (string, error) {
	stdout, stderr, code, err := runner.Run(ctx, "sw_vers", "-productVersion")
	if rerr := osexec.RunError("read product version", stderr, code, err); rerr != nil {
		return "", rerr
	}
	return strings.TrimSpace(string(stdout)), nil
}
