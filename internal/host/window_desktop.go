//go:build !android && !ios

package host

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/manifest"
	"github.com/hullshell/hull/internal/osexec"
)

// browserDriver opens the UI in the user's default browser. Once handed
// off, the browser's window lifetime is invisible to us, so Done never
// fires and shutdown comes from signals or the bridge instead.
type browserDriver struct {
	runner osexec.CommandRunner
	goos   string
	done   chan struct{}
}

func defaultWindowDriver(runner osexec.CommandRunner) WindowDriver {
	return &browserDriver{runner: runner, goos: runtime.GOOS, done: make(chan struct{})}
}

func (d *browserDriver) Open(ctx context.Context, url string, win *manifest.Window) error {
	argv, err := openCommand(d.goos, url)
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Opening application window.", "url", url, "title", win.Title, "argv", argv)

	_, stderr, code, err := d.runner.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return fmt.Errorf("open window (%s, exit %d): %w: %s", argv[0], code, err, string(stderr))
	}
	return nil
}

func (d *browserDriver) Done() <-chan struct{} { return d.done }

// openCommand builds the platform argv that hands a URL to the default
// browser.
func openCommand(goos, url string) ([]string, error) {
	switch goos {
	case "linux":
		return []string{"xdg-open", url}, nil
	case "darwin":
		return []string{"open", url}, nil
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", url}, nil
	default:
		return nil, fmt.Errorf("no window driver for %s", goos)
	}
}
