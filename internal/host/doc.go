// Package host implements the framework core of hull: a builder that
// collects capability plugins and setup hooks, a loopback UI server with the
// WebSocket bridge mounted on it, a per-platform window driver, a
// single-instance guard, and the blocking run loop that ties them together.
//
// A Builder is configured once, on the main goroutine, and then handed
// control via Run. Run owns startup, event dispatch, and teardown; any
// failure during startup is returned to the caller, which is expected to
// treat it as fatal.
package host
