//go:build !android && !ios

package app

import (
	"github.com/hullshell/hull/internal/registry"
	"github.com/hullshell/hull/plugins/deeplink"
	"github.com/hullshell/hull/plugins/opener"
)

// platformPlugins returns the desktop capability set: the baseline five
// plus the opener.
func platformPlugins(dl *deeplink.Plugin) []registry.Plugin {
	return append(basePlugins(dl), opener.New())
}
