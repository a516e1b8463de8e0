package registry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/event"
)

// EventHandler is implemented by plugins that want run-loop events. Delivery
// happens on the loop goroutine in attach order; handlers must not block.
type EventHandler interface {
	OnEvent(ctx context.Context, ev event.Event)
}

// Setup initializes every attached plugin in attach order and builds the
// command table from plugins implementing Commander. It stops at the first
// failing plugin.
func (r *Registry) Setup(ctx context.Context, host Host) error {
	if r.setup {
		return errors.New("registry setup ran twice")
	}
	r.setup = true

	for _, p := range r.ordered {
		pctx := ctxlog.With(ctx, "plugin", p.Name())
		if err := p.Setup(pctx, host); err != nil {
			return fmt.Errorf("plugin %q setup: %w", p.Name(), err)
		}
		if err := r.registerCommands(p); err != nil {
			return err
		}
		ctxlog.FromContext(pctx).Debug("Plugin ready.")
	}
	return nil
}

// Deliver fans an event out to every plugin that handles events, in attach
// order.
func (r *Registry) Deliver(ctx context.Context, ev event.Event) {
	for _, p := range r.ordered {
		if h, ok := p.(EventHandler); ok {
			h.OnEvent(ctx, ev)
		}
	}
}

// Close shuts plugins down in reverse attach order, joining their errors.
func (r *Registry) Close() error {
	var errs []error
	for i := len(r.ordered) - 1; i >= 0; i-- {
		if c, ok := r.ordered[i].(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("plugin %q close: %w", r.ordered[i].Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
