//go:build android || ios

package host

import (
	"context"

	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/manifest"
	"github.com/hullshell/hull/internal/osexec"
)

// attachDriver is the mobile window driver. The native layer embeds a web
// view pointed at the UI server; the host only needs to keep serving, so
// Open is a log line and Done fires when the embedder detaches.
type attachDriver struct {
	done chan struct{}
}

func defaultWindowDriver(_ osexec.CommandRunner) WindowDriver {
	return &attachDriver{done: make(chan struct{})}
}

func (d *attachDriver) Open(ctx context.Context, url string, _ *manifest.Window) error {
	ctxlog.FromContext(ctx).Info("UI ready for native web view.", "url", url)
	return nil
}

func (d *attachDriver) Done() <-chan struct{} { return d.done }

// Detach reports that the embedding native layer has torn the web view
// down, ending the run loop.
func (d *attachDriver) Detach() {
	select {
	case <-d.done:
	default:
		close(d.done)
	}
}
