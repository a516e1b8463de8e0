package app

import (
	"context"

	"github.com/hullshell/hull/internal/config"
	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/host"
	"github.com/hullshell/hull/internal/manifest"
	"github.com/hullshell/hull/internal/registry"
	"github.com/hullshell/hull/plugins/deeplink"
)

// newBuilder wires the platform plugin set and the boot hook into a host
// builder.
func newBuilder(mf *manifest.Manifest, rt config.Runtime, launchArgs []string) *host.Builder {
	dl := deeplink.New()

	b := host.New(mf, rt).LaunchArgs(launchArgs)
	for _, p := range platformPlugins(dl) {
		b.Plugin(p)
	}
	b.OnSetup(bootHook(dl))
	return b
}

// schemeRegistrar is the slice of the deeplink plugin the boot hook uses.
type schemeRegistrar interface {
	RegisterAll(ctx context.Context) error
}

// bootHook runs once after every plugin's Setup has finished. Where
// relinkDeepLinksOnBoot is set it refreshes the OS scheme registrations,
// which record the executable path and go stale when that path changes.
func bootHook(dl schemeRegistrar) host.SetupHook {
	return func(ctx context.Context, _ registry.Host) error {
		if relinkDeepLinksOnBoot {
			relinkDeepLinks(ctx, dl)
		}
		return nil
	}
}

// relinkDeepLinks re-registers the configured URL schemes with the OS.
// Failures are logged at debug level and otherwise discarded; boot proceeds
// without the registration.
func relinkDeepLinks(ctx context.Context, dl schemeRegistrar) {
	if err := dl.RegisterAll(ctx); err != nil {
		ctxlog.FromContext(ctx).Debug("Deep link re-registration failed.", "error", err)
	}
}
