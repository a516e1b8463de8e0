package testutil

import (
	"sync"

	"github.com/hashicorp/hcl/v2"
)

// EmittedEvent records one Emit call observed by a FakeHost.
type EmittedEvent struct {
	Name    string
	Payload any
}

// FakeHost is a configurable stand-in for the application host surface that
// plugins see. The zero value is usable; set fields before handing it to a
// plugin.
type FakeHost struct {
	ID         string
	Name       string
	AppVersion string
	Data       string
	Blocks     map[string]hcl.Body
	UIAddress  string
	Launch     []string

	mu     sync.Mutex
	events []EmittedEvent
	exits  []int
}

func (h *FakeHost) AppID() string   { return h.ID }
func (h *FakeHost) AppName() string { return h.Name }
func (h *FakeHost) Version() string { return h.AppVersion }
func (h *FakeHost) DataDir() string { return h.Data }
func (h *FakeHost) UIAddr() string  { return h.UIAddress }

func (h *FakeHost) PluginConfig(name string) hcl.Body {
	if h.Blocks == nil {
		return nil
	}
	return h.Blocks[name]
}

func (h *FakeHost) Emit(name string, payload any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, EmittedEvent{Name: name, Payload: payload})
	return nil
}

func (h *FakeHost) Exit(code int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exits = append(h.exits, code)
}

func (h *FakeHost) LaunchURLs() []string { return h.Launch }

// Events returns a copy of the emitted events in emission order.
func (h *FakeHost) Events() []EmittedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]EmittedEvent, len(h.events))
	copy(out, h.events)
	return out
}

// ExitCodes returns the codes passed to Exit, in call order.
func (h *FakeHost) ExitCodes() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int, len(h.exits))
	copy(out, h.exits)
	return out
}
