package app

import (
	"github.com/hullshell/hull/internal/registry"
	"github.com/hullshell/hull/plugins/deeplink"
	"github.com/hullshell/hull/plugins/httpclient"
	"github.com/hullshell/hull/plugins/notification"
	"github.com/hullshell/hull/plugins/osinfo"
	"github.com/hullshell/hull/plugins/store"
)

// basePlugins is the capability set every platform gets, in attach order.
// platformPlugins appends the per-platform extras. The deeplink plugin is
// passed in because the boot hook needs the same instance.
func basePlugins(dl *deeplink.Plugin) []registry.Plugin {
	return []registry.Plugin{
		store.New(),
		notification.New(),
		dl,
		httpclient.New(),
		osinfo.New(),
	}
}
