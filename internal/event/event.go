// Package event defines the run-loop events exchanged between the host,
// its capability plugins, and the UI bridge.
package event

// Kind discriminates the concrete event types carried by the run loop.
type Kind string

const (
	KindReady         Kind = "ready"
	KindDeepLink      Kind = "deeplink"
	KindWindowClosed  Kind = "window-closed"
	KindExitRequested Kind = "exit-requested"
	KindCustom        Kind = "custom"
)

// Event is a single occurrence delivered to plugin event handlers and
// broadcast to attached UI sessions. Implementations are plain data; the
// run loop owns delivery order.
type Event interface {
	Kind() Kind
}

// Ready is emitted exactly once, after all plugins have completed setup and
// before any other event is dispatched.
type Ready struct{}

func (Ready) Kind() Kind { return KindReady }

// DeepLink carries one or more application URLs handed to the process, either
// on its own command line at launch or forwarded by a secondary instance.
type DeepLink struct {
	URLs []string
}

func (DeepLink) Kind() Kind { return KindDeepLink }

// WindowClosed reports that the window driver considers the application
// window gone.
type WindowClosed struct{}

func (WindowClosed) Kind() Kind { return KindWindowClosed }

// ExitRequested asks the run loop to shut down with the given process exit
// code. The loop drains it; plugins observe it before teardown begins.
type ExitRequested struct {
	Code int
}

func (ExitRequested) Kind() Kind { return KindExitRequested }

// Custom is a named application event, typically emitted by a plugin for the
// UI. Payload must be JSON-marshalable.
type Custom struct {
	Name    string
	Payload any
}

func (Custom) Kind() Kind { return KindCustom }
