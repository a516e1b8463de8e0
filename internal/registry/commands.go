package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hullshell/hull/internal/ctxlog"
)

// CommandFunc handles one UI-invokable command. Args is the raw JSON the
// caller supplied (possibly nil); the returned value is marshaled back to
// the caller.
type CommandFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Commander is implemented by plugins that expose commands to the UI. Keys
// are bare command names; the registry qualifies them as "plugin.command".
type Commander interface {
	Commands() map[string]CommandFunc
}

// registerCommands merges a plugin's command map into the dispatch table.
func (r *Registry) registerCommands(p Plugin) error {
	c, ok := p.(Commander)
	if !ok {
		return nil
	}
	for name, fn := range c.Commands() {
		if !isValidName(name) {
			return fmt.Errorf("%w: plugin %q command %q", ErrInvalidName, p.Name(), name)
		}
		if fn == nil {
			return fmt.Errorf("plugin %q command %q is nil", p.Name(), name)
		}
		id := p.Name() + "." + name
		if _, exists := r.commands[id]; exists {
			return fmt.Errorf("command %q registered twice", id)
		}
		r.commands[id] = fn
	}
	return nil
}

// DecodeArgs unmarshals caller-supplied command arguments into in. Nil or
// empty args leave in at its zero value so commands without arguments stay
// callable with a bare invoke.
func DecodeArgs(args json.RawMessage, in any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, in); err != nil {
		return fmt.Errorf("decode command args: %w", err)
	}
	return nil
}

// Dispatch invokes a command by its qualified "plugin.command" identifier.
func (r *Registry) Dispatch(ctx context.Context, id string, args json.RawMessage) (any, error) {
	fn, ok := r.commands[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, id)
	}
	return fn(ctxlog.With(ctx, "command", id), args)
}

// CommandIDs returns the qualified identifiers in the dispatch table, in no
// particular order.
func (r *Registry) CommandIDs() []string {
	ids := make([]string, 0, len(r.commands))
	for id := range r.commands {
		ids = append(ids, id)
	}
	return ids
}
