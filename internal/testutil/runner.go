package testutil

import (
	"context"
	"sync"
)

// FakeRunner implements osexec.CommandRunner, recording every invocation and
// replaying configured results instead of executing anything.
type FakeRunner struct {
	Stdout []byte
	Stderr []byte
	Code   int32
	Err    error

	mu    sync.Mutex
	calls [][]string
}

// Run records the argv and returns the configured result.
func (r *FakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	argv := append([]string{name}, args...)
	r.calls = append(r.calls, argv)
	return r.Stdout, r.Stderr, r.Code, r.Err
}

// Calls returns the recorded argv lists in invocation order.
func (r *FakeRunner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = append([]string(nil), c...)
	}
	return out
}
