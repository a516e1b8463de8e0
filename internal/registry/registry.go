package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

var (
	ErrPluginExists   = errors.New("plugin already attached")
	ErrPluginNil      = errors.New("plugin is nil")
	ErrInvalidName    = errors.New("invalid plugin name")
	ErrUnknownCommand = errors.New("unknown command")
)

// Plugin is the contract every capability plugin implements to be attached
// to a host. Setup is called exactly once, in attach order, before the run
// loop starts; an error from Setup aborts startup.
//
// Plugins may additionally implement Commander, EventHandler, or io.Closer
// to take part in command dispatch, event delivery, and shutdown.
type Plugin interface {
	Name() string
	Setup(ctx context.Context, host Host) error
}

// Host is the surface a plugin sees of the application hosting it.
type Host interface {
	// AppID returns the reverse-DNS application identifier from the manifest.
	AppID() string
	// AppName returns the human-readable application name.
	AppName() string
	// Version returns the application version string.
	Version() string
	// DataDir returns the per-application writable data directory.
	DataDir() string
	// PluginConfig returns the plugin's manifest block body, or nil when the
	// manifest carries no block for that plugin.
	PluginConfig(name string) hcl.Body
	// Emit broadcasts a named event with a JSON-marshalable payload to the
	// run loop and any attached UI sessions.
	Emit(name string, payload any) error
	// UIAddr returns the address the UI server is listening on, empty before
	// the listener is bound.
	UIAddr() string
	// Exit asks the run loop to shut the application down.
	Exit(code int)
	// LaunchURLs returns the deep-link URLs the process was started with.
	LaunchURLs() []string
}

// Registry stores attached plugins by stable name, preserving attach order.
type Registry struct {
	ordered  []Plugin
	byName   map[string]Plugin
	commands map[string]CommandFunc
	setup    bool
}

// New creates an empty plugin registry.
func New() *Registry {
	return &Registry{
		byName:   make(map[string]Plugin),
		commands: make(map[string]CommandFunc),
	}
}

// Attach adds a plugin to the registry. Names must be unique and follow the
// identifier grammar; attach order is preserved through Setup, event
// delivery, and Names.
func (r *Registry) Attach(p Plugin) error {
	if p == nil {
		return ErrPluginNil
	}
	name := p.Name()
	if !isValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %q", ErrPluginExists, name)
	}
	r.byName[name] = p
	r.ordered = append(r.ordered, p)
	return nil
}

// Get returns an attached plugin by name.
func (r *Registry) Get(name string) (Plugin, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Names returns the plugin names in attach order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.ordered))
	for i, p := range r.ordered {
		names[i] = p.Name()
	}
	return names
}

// Has reports whether a plugin with the given name is attached.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Len returns the number of attached plugins.
func (r *Registry) Len() int {
	return len(r.ordered)
}

// isValidName enforces the identifier grammar shared by plugin and command
// names: lowercase letters, digits, and single '.', '-' or '_' separators,
// never at the edges.
func isValidName(name string) bool {
	if name == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(name)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
