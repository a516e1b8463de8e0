package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/hullshell/hull/internal/config"
	"github.com/hullshell/hull/internal/event"
	"github.com/hullshell/hull/internal/manifest"
)

// ErrEventQueueFull reports that an emitted event was dropped because the
// run loop is not draining fast enough.
var ErrEventQueueFull = errors.New("event queue full")

// eventQueueLen bounds the run-loop inbox. Events emitted during plugin
// setup park here until the loop starts draining.
const eventQueueLen = 128

// Host carries the per-run state handed to plugins and the UI server. It
// implements registry.Host.
type Host struct {
	mf      *manifest.Manifest
	rt      config.Runtime
	dataDir string
	token   string
	args    []string

	uiAddr string
	events chan event.Event
}

func newHost(mf *manifest.Manifest, rt config.Runtime, token string, args []string) *Host {
	return &Host{
		mf:     mf,
		rt:     rt,
		token:  token,
		args:   args,
		events: make(chan event.Event, eventQueueLen),
	}
}

// AppID returns the manifest's reverse-DNS application identifier.
func (h *Host) AppID() string { return h.mf.App.ID }

// AppName returns the manifest's human-readable application name.
func (h *Host) AppName() string { return h.mf.App.Name }

// Version returns the manifest's application version.
func (h *Host) Version() string { return h.mf.App.Version }

// DataDir returns the per-application writable data directory. It exists by
// the time plugins are set up.
func (h *Host) DataDir() string { return h.dataDir }

// PluginConfig returns the manifest block body for a plugin, nil when the
// manifest has none.
func (h *Host) PluginConfig(name string) hcl.Body { return h.mf.PluginBody(name) }

// UIAddr returns the base URL the UI server is reachable at, empty before
// the listener is bound.
func (h *Host) UIAddr() string { return h.uiAddr }

// Emit queues a named application event for the run loop, which delivers it
// to plugin event handlers and broadcasts it to attached UI sessions.
func (h *Host) Emit(name string, payload any) error {
	select {
	case h.events <- event.Custom{Name: name, Payload: payload}:
		return nil
	default:
		return fmt.Errorf("%w: dropping %q", ErrEventQueueFull, name)
	}
}

// Exit asks the run loop to shut the application down with the given code.
func (h *Host) Exit(code int) {
	select {
	case h.events <- event.ExitRequested{Code: code}:
	default:
		// The loop is already tearing down; the request is moot.
	}
}

// LaunchURLs returns the URL-shaped arguments the process was launched
// with. Scheme filtering is up to the consuming plugin.
func (h *Host) LaunchURLs() []string {
	var urls []string
	for _, arg := range h.args {
		if strings.Contains(arg, "://") {
			urls = append(urls, arg)
		}
	}
	return urls
}

// resolveDataDir creates and records the application data directory:
// the configured override, or <user config dir>/hull/<app id>.
func (h *Host) resolveDataDir() error {
	dir := h.rt.DataDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("resolve user config dir: %w", err)
		}
		dir = filepath.Join(base, "hull", h.mf.App.ID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	h.dataDir = dir
	return nil
}
