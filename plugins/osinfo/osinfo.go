// Package osinfo reports host platform facts to the UI: platform and
// architecture, OS version, hostname, and the user's locale.
package osinfo

import (
	"context"
	"encoding/json"
	"os"
	"runtime"
	"strings"

	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/osexec"
	"github.com/hullshell/hull/internal/registry"
)

// Info is the payload returned by osinfo.info.
type Info struct {
	Platform     string `json:"platform"`
	Family       string `json:"family"`
	Arch         string `json:"arch"`
	Version      string `json:"version"`
	Hostname     string `json:"hostname"`
	Locale       string `json:"locale"`
	ExeExtension string `json:"exe_extension"`
}

// Plugin implements the osinfo capability. The accessor fields exist so
// tests can pin every fact; New binds them to the real system.
type Plugin struct {
	runner   osexec.CommandRunner
	goos     string
	goarch   string
	hostname func() (string, error)
	getenv   func(string) string
	version  func(ctx context.Context, runner osexec.CommandRunner) (string, error)
}

// New returns an osinfo plugin bound to the current system.
func New() *Plugin {
	return &Plugin{
		runner:   osexec.ExecRunner{},
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
		hostname: os.Hostname,
		getenv:   os.Getenv,
		version:  platformVersion,
	}
}

// Name implements registry.Plugin.
func (p *Plugin) Name() string { return "osinfo" }

// Setup implements registry.Plugin. Nothing to prepare; every fact is read
// on demand.
func (p *Plugin) Setup(context.Context, registry.Host) error { return nil }

// Commands implements registry.Commander.
func (p *Plugin) Commands() map[string]registry.CommandFunc {
	return map[string]registry.CommandFunc{
		"info": p.handleInfo,
	}
}

func (p *Plugin) handleInfo(ctx context.Context, _ json.RawMessage) (any, error) {
	version, err := p.version(ctx, p.runner)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("OS version lookup failed.", "error", err)
		version = "unknown"
	}

	hostname, err := p.hostname()
	if err != nil {
		hostname = ""
	}

	return Info{
		Platform:     p.goos,
		Family:       familyOf(p.goos),
		Arch:         p.goarch,
		Version:      version,
		Hostname:     hostname,
		Locale:       localeFromEnv(p.getenv),
		ExeExtension: exeExtensionOf(p.goos),
	}, nil
}

func familyOf(goos string) string {
	if goos == "windows" {
		return "windows"
	}
	return "unix"
}

func exeExtensionOf(goos string) string {
	if goos == "windows" {
		return "exe"
	}
	return ""
}

// localeFromEnv resolves the user locale from the POSIX variable chain,
// normalized to a BCP 47 shape ("en_US.UTF-8" becomes "en-US").
func localeFromEnv(lookup func(string) string) string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := lookup(key); v != "" {
			return normalizeLocale(v)
		}
	}
	return ""
}

func normalizeLocale(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	if v == "C" || v == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(v, "_", "-")
}
