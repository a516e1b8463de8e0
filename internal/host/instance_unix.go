//go:build unix

package host

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// unixGuard implements the single-instance policy over a named unix socket.
// Holding the listener is the lock.
type unixGuard struct {
	path     string
	listener *guardListener
}

func newInstanceGuard(appID, dataDir string) InstanceGuard {
	return &unixGuard{path: guardSocketPath(appID)}
}

// guardSocketPath places the socket in the caller's runtime dir, falling
// back to the system temp dir.
func guardSocketPath(appID string) string {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
	}
	name := "hull-" + strings.ReplaceAll(appID, ".", "-") + ".sock"
	return filepath.Join(base, name)
}

func (g *unixGuard) Acquire(ctx context.Context) (bool, error) {
	// A live socket means a primary is serving it.
	if conn, err := net.DialTimeout("unix", g.path, guardDialTimeout); err == nil {
		conn.Close()
		return false, nil
	}

	// Dead or absent socket: claim it. Losing the claim race to another
	// starting process downgrades us to a secondary.
	os.Remove(g.path)
	ln, err := net.Listen("unix", g.path)
	if err != nil {
		if conn, derr := net.DialTimeout("unix", g.path, guardDialTimeout); derr == nil {
			conn.Close()
			return false, nil
		}
		return false, fmt.Errorf("claim instance socket %s: %w", g.path, err)
	}
	g.listener = newGuardListener(ln)
	return true, nil
}

func (g *unixGuard) Forward(ctx context.Context, urls []string) error {
	conn, err := net.DialTimeout("unix", g.path, guardDialTimeout)
	if err != nil {
		return fmt.Errorf("reach primary instance: %w", err)
	}
	return forwardTo(conn, urls)
}

func (g *unixGuard) Notifications() <-chan []string {
	if g.listener == nil {
		return nil
	}
	return g.listener.ch
}

func (g *unixGuard) Close() error {
	if g.listener != nil {
		g.listener.close()
		os.Remove(g.path)
	}
	return nil
}
