//go:build windows

package host

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// windowsGuard implements the single-instance policy with a loopback TCP
// listener whose address is published in a port file under the data dir.
type windowsGuard struct {
	portFile string
	listener *guardListener
}

func newInstanceGuard(appID, dataDir string) InstanceGuard {
	return &windowsGuard{portFile: filepath.Join(dataDir, "instance.addr")}
}

func (g *windowsGuard) Acquire(ctx context.Context) (bool, error) {
	if addr, ok := g.publishedAddr(); ok {
		if conn, err := net.DialTimeout("tcp", addr, guardDialTimeout); err == nil {
			conn.Close()
			return false, nil
		}
		// Stale file from a crashed primary.
		os.Remove(g.portFile)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return false, fmt.Errorf("claim instance listener: %w", err)
	}
	if err := os.WriteFile(g.portFile, []byte(ln.Addr().String()), 0o600); err != nil {
		ln.Close()
		return false, fmt.Errorf("publish instance address: %w", err)
	}
	g.listener = newGuardListener(ln)
	return true, nil
}

func (g *windowsGuard) Forward(ctx context.Context, urls []string) error {
	addr, ok := g.publishedAddr()
	if !ok {
		return fmt.Errorf("no primary instance address")
	}
	conn, err := net.DialTimeout("tcp", addr, guardDialTimeout)
	if err != nil {
		return fmt.Errorf("reach primary instance: %w", err)
	}
	return forwardTo(conn, urls)
}

func (g *windowsGuard) Notifications() <-chan []string {
	if g.listener == nil {
		return nil
	}
	return g.listener.ch
}

func (g *windowsGuard) Close() error {
	if g.listener != nil {
		g.listener.close()
		os.Remove(g.portFile)
	}
	return nil
}

func (g *windowsGuard) publishedAddr() (string, bool) {
	data, err := os.ReadFile(g.portFile)
	if err != nil {
		return "", false
	}
	addr := strings.TrimSpace(string(data))
	return addr, addr != ""
}
