//go:build android || ios

package app

import (
	"github.com/hullshell/hull/internal/registry"
	"github.com/hullshell/hull/plugins/deeplink"
	"github.com/hullshell/hull/plugins/scanner"
)

// platformPlugins returns the mobile capability set: the baseline five
// plus the barcode scanner.
func platformPlugins(dl *deeplink.Plugin) []registry.Plugin {
	return append(basePlugins(dl), scanner.New())
}

// Scanner exposes the scanner plugin so the embedding layer can attach the
// platform camera as its frame source before Run.
func (a *App) Scanner() *scanner.Plugin {
	p, ok := a.builder.Registry().Get("scanner")
	if !ok {
		return nil
	}
	s, _ := p.(*scanner.Plugin)
	return s
}
