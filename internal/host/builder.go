package host

import (
	"context"

	"github.com/hullshell/hull/internal/config"
	"github.com/hullshell/hull/internal/manifest"
	"github.com/hullshell/hull/internal/osexec"
	"github.com/hullshell/hull/internal/registry"
)

// SetupHook runs after every plugin has completed Setup and before the run
// loop dispatches its first event.
type SetupHook func(ctx context.Context, h registry.Host) error

// Builder collects everything a run needs: the application manifest, the
// runtime configuration, the ordered plugin set, and setup hooks. Attach
// errors are deferred and surfaced by Run, so construction chains cleanly.
type Builder struct {
	mf        *manifest.Manifest
	rt        config.Runtime
	reg       *registry.Registry
	hooks     []SetupHook
	attachErr error

	args   []string
	runner osexec.CommandRunner
	driver WindowDriver
	guard  InstanceGuard
}

// New creates a builder for the given application.
func New(mf *manifest.Manifest, rt config.Runtime) *Builder {
	return &Builder{
		mf:     mf,
		rt:     rt,
		reg:    registry.New(),
		runner: osexec.ExecRunner{},
	}
}

// Plugin attaches a capability plugin. Attach order is setup and dispatch
// order. A duplicate or invalid plugin poisons the builder; Run reports it.
func (b *Builder) Plugin(p registry.Plugin) *Builder {
	if b.attachErr == nil {
		b.attachErr = b.reg.Attach(p)
	}
	return b
}

// OnSetup appends a setup hook. Hooks run in append order.
func (b *Builder) OnSetup(hook SetupHook) *Builder {
	b.hooks = append(b.hooks, hook)
	return b
}

// LaunchArgs provides the process arguments to scan for deep-link URLs.
func (b *Builder) LaunchArgs(args []string) *Builder {
	b.args = args
	return b
}

// CommandRunner substitutes the executor used by the default window driver.
func (b *Builder) CommandRunner(r osexec.CommandRunner) *Builder {
	b.runner = r
	return b
}

// WindowDriver substitutes the platform window driver. Tests and native
// embedders use this; everyone else gets the platform default.
func (b *Builder) WindowDriver(d WindowDriver) *Builder {
	b.driver = d
	return b
}

// InstanceGuard substitutes the single-instance guard.
func (b *Builder) InstanceGuard(g InstanceGuard) *Builder {
	b.guard = g
	return b
}

// Registry exposes the attached plugin set, primarily for tests.
func (b *Builder) Registry() *registry.Registry {
	return b.reg
}
