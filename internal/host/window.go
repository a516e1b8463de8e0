package host

import (
	"context"

	"github.com/hullshell/hull/internal/manifest"
)

// WindowDriver presents the application window for the current platform.
//
// Desktop builds launch the system browser at the UI URL; mobile builds are
// attach-only, with the native layer embedding a web view pointed at the
// host. Tests substitute their own driver through Builder.WindowDriver.
type WindowDriver interface {
	// Open presents the UI at url. The window geometry is advisory; drivers
	// that cannot honor it ignore it.
	Open(ctx context.Context, url string, win *manifest.Window) error
	// Done reports window teardown on platforms that can observe it. The
	// channel may never fire; the run loop treats it as one exit source
	// among several.
	Done() <-chan struct{}
}
