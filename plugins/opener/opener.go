//go:build !android && !ios

// Package opener hands URLs and filesystem paths to the desktop's default
// applications and reveals paths in the platform file manager.
package opener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/osexec"
	"github.com/hullshell/hull/internal/registry"
	"github.com/hullshell/hull/internal/wildcard"
)

// Config is the schema for the plugin's manifest block.
type Config struct {
	// Allow restricts open_url targets beyond the scheme gate. Empty means
	// any http(s), mailto or tel URL may be opened.
	Allow []string `hcl:"allow,optional"`
}

// Plugin implements the opener capability.
type Plugin struct {
	runner osexec.CommandRunner
	goos   string
	allow  []string
}

// New returns an opener plugin bound to the current platform.
func New() *Plugin {
	return &Plugin{runner: osexec.ExecRunner{}, goos: runtime.GOOS}
}

// Name implements registry.Plugin.
func (p *Plugin) Name() string { return "opener" }

// Setup decodes the manifest block.
func (p *Plugin) Setup(_ context.Context, host registry.Host) error {
	cfg := Config{}
	if body := host.PluginConfig(p.Name()); body != nil {
		if diags := gohcl.DecodeBody(body, nil, &cfg); diags.HasErrors() {
			return fmt.Errorf("decode opener block: %w", diags)
		}
	}
	p.allow = cfg.Allow
	return nil
}

// Commands implements registry.Commander.
func (p *Plugin) Commands() map[string]registry.CommandFunc {
	return map[string]registry.CommandFunc{
		"open_url":  p.handleOpenURL,
		"open_path": p.handleOpenPath,
		"reveal":    p.handleReveal,
	}
}

type openURLArgs struct {
	URL  string `json:"url"`
	With string `json:"with"`
}

type openPathArgs struct {
	Path string `json:"path"`
	With string `json:"with"`
}

func (p *Plugin) handleOpenURL(ctx context.Context, args json.RawMessage) (any, error) {
	in := openURLArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	u, err := url.Parse(in.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url '%s': %w", in.URL, err)
	}
	if !openableScheme(u.Scheme) {
		return nil, fmt.Errorf("scheme '%s' is not openable", u.Scheme)
	}
	if len(p.allow) > 0 && !wildcard.MatchAny(p.allow, in.URL) {
		return nil, fmt.Errorf("url '%s' is blocked by the opener scope", in.URL)
	}
	return nil, p.launch(ctx, in.URL, in.With)
}

func (p *Plugin) handleOpenPath(ctx context.Context, args json.RawMessage) (any, error) {
	in := openPathArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := validatePath(in.Path); err != nil {
		return nil, err
	}
	return nil, p.launch(ctx, in.Path, in.With)
}

func (p *Plugin) handleReveal(ctx context.Context, args json.RawMessage) (any, error) {
	in := openPathArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := validatePath(in.Path); err != nil {
		return nil, err
	}
	argv, err := revealArgv(p.goos, in.Path)
	if err != nil {
		return nil, err
	}

	_, stderr, code, runErr := p.runner.Run(ctx, argv[0], argv[1:]...)
	if p.goos == "windows" {
		// explorer.exe exits nonzero even on success; only a missing
		// binary counts as failure there.
		if code == 127 {
			return nil, osexec.RunError(fmt.Sprintf("failed to reveal '%s'", in.Path), stderr, code, runErr)
		}
		return nil, nil
	}
	if err := osexec.RunError(fmt.Sprintf("failed to reveal '%s'", in.Path), stderr, code, runErr); err != nil {
		return nil, err
	}
	return nil, nil
}

// launch opens the target with the platform handler, or with a named
// program when the caller specifies one.
func (p *Plugin) launch(ctx context.Context, target, with string) error {
	argv, err := openArgv(p.goos, target, with)
	if err != nil {
		return err
	}
	_, stderr, code, runErr := p.runner.Run(ctx, argv[0], argv[1:]...)
	if err := osexec.RunError(fmt.Sprintf("failed to open '%s'", target), stderr, code, runErr); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Opened target.", "target", target)
	return nil
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path is required")
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path '%s' must be absolute", path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("path '%s' is not accessible: %w", path, err)
	}
	return nil
}

func openableScheme(scheme string) bool {
	switch scheme {
	case "http", "https", "mailto", "tel":
		return true
	}
	return false
}

func openArgv(goos, target, with string) ([]string, error) {
	if with != "" {
		if goos == "darwin" {
			return []string{"open", "-a", with, target}, nil
		}
		return []string{with, target}, nil
	}
	switch goos {
	case "linux":
		return []string{"xdg-open", target}, nil
	case "darwin":
		return []string{"open", target}, nil
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", target}, nil
	default:
		return nil, fmt.Errorf("open is not supported on %s", goos)
	}
}

func revealArgv(goos, path string) ([]string, error) {
	switch goos {
	case "linux":
		return []string{"xdg-open", filepath.Dir(path)}, nil
	case "darwin":
		return []string{"open", "-R", path}, nil
	case "windows":
		return []string{"explorer", "/select," + path}, nil
	default:
		return nil, fmt.Errorf("reveal is not supported on %s", goos)
	}
}
