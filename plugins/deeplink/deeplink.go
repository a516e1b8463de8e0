// Package deeplink registers the application as the OS handler for its
// custom URL schemes and surfaces deep-link activations to the UI.
package deeplink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/event"
	"github.com/hullshell/hull/internal/osexec"
	"github.com/hullshell/hull/internal/registry"
)

// ErrUnsupported reports that scheme registration on this platform lives in
// bundle or store metadata rather than a runtime call.
var ErrUnsupported = errors.New("deep link registration is not supported on this platform")

// appInfo is the application identity a backend registers schemes under.
type appInfo struct {
	id   string
	name string
}

// backend binds URL schemes to the application in one operating system.
type backend interface {
	registerAll(ctx context.Context, app appInfo, schemes []string) error
	unregisterAll(ctx context.Context, app appInfo, schemes []string) error
	isRegistered(ctx context.Context, app appInfo, scheme string) (bool, error)
}

// Config is the schema for the plugin's manifest block.
type Config struct {
	// Schemes are the URL schemes the application claims, without "://".
	Schemes []string `hcl:"schemes,optional"`
}

// Plugin implements the deeplink capability. Without configured schemes it
// stays inert: registration is a no-op and no activation ever matches.
type Plugin struct {
	backend backend
	host    registry.Host
	app     appInfo
	schemes []string

	mu      sync.Mutex
	current []string
}

// New returns a deeplink plugin bound to the platform backend.
func New() *Plugin {
	return &Plugin{backend: newBackend(osexec.ExecRunner{})}
}

// Name implements registry.Plugin.
func (p *Plugin) Name() string { return "deeplink" }

// Setup decodes and validates the configured schemes.
func (p *Plugin) Setup(_ context.Context, host registry.Host) error {
	cfg := Config{}
	if body := host.PluginConfig(p.Name()); body != nil {
		if diags := gohcl.DecodeBody(body, nil, &cfg); diags.HasErrors() {
			return fmt.Errorf("decode deeplink block: %w", diags)
		}
	}
	for _, s := range cfg.Schemes {
		if !isValidScheme(s) {
			return fmt.Errorf("invalid scheme '%s'", s)
		}
	}

	p.host = host
	p.app = appInfo{id: host.AppID(), name: host.AppName()}
	p.schemes = cfg.Schemes
	return nil
}

// RegisterAll (re-)registers every configured scheme with the OS.
func (p *Plugin) RegisterAll(ctx context.Context) error {
	if len(p.schemes) == 0 {
		return nil
	}
	if err := p.backend.registerAll(ctx, p.app, p.schemes); err != nil {
		return fmt.Errorf("failed to register schemes %v: %w", p.schemes, err)
	}
	return nil
}

// UnregisterAll removes every configured scheme association.
func (p *Plugin) UnregisterAll(ctx context.Context) error {
	if len(p.schemes) == 0 {
		return nil
	}
	if err := p.backend.unregisterAll(ctx, p.app, p.schemes); err != nil {
		return fmt.Errorf("failed to unregister schemes %v: %w", p.schemes, err)
	}
	return nil
}

// IsRegistered reports whether the application currently handles the scheme.
func (p *Plugin) IsRegistered(ctx context.Context, scheme string) (bool, error) {
	if !p.hasScheme(scheme) {
		return false, nil
	}
	return p.backend.isRegistered(ctx, p.app, scheme)
}

// OnEvent captures deep-link activations whose scheme belongs to this
// application and republishes them to the UI.
func (p *Plugin) OnEvent(ctx context.Context, ev event.Event) {
	dl, ok := ev.(event.DeepLink)
	if !ok {
		return
	}
	urls := p.matching(dl.URLs)
	if len(urls) == 0 {
		return
	}

	p.mu.Lock()
	p.current = urls
	p.mu.Unlock()

	if err := p.host.Emit("deeplink.url", map[string][]string{"urls": urls}); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to forward deep link to UI.", "error", err)
	}
}

// Current returns the URLs of the most recent matching activation.
func (p *Plugin) Current() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.current...)
}

// Commands implements registry.Commander.
func (p *Plugin) Commands() map[string]registry.CommandFunc {
	return map[string]registry.CommandFunc{
		"get_current":   p.handleGetCurrent,
		"register_all":  p.handleRegisterAll,
		"is_registered": p.handleIsRegistered,
	}
}

func (p *Plugin) handleGetCurrent(_ context.Context, _ json.RawMessage) (any, error) {
	return map[string][]string{"urls": p.Current()}, nil
}

func (p *Plugin) handleRegisterAll(ctx context.Context, _ json.RawMessage) (any, error) {
	return nil, p.RegisterAll(ctx)
}

type isRegisteredArgs struct {
	Scheme string `json:"scheme"`
}

func (p *Plugin) handleIsRegistered(ctx context.Context, args json.RawMessage) (any, error) {
	in := isRegisteredArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Scheme == "" {
		return nil, fmt.Errorf("scheme is required")
	}
	return p.IsRegistered(ctx, in.Scheme)
}

// matching filters URLs down to those whose scheme the plugin is configured
// for. Comparison is case-insensitive per RFC 3986.
func (p *Plugin) matching(urls []string) []string {
	var out []string
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" {
			continue
		}
		if p.hasScheme(u.Scheme) {
			out = append(out, raw)
		}
	}
	return out
}

func (p *Plugin) hasScheme(scheme string) bool {
	for _, s := range p.schemes {
		if strings.EqualFold(s, scheme) {
			return true
		}
	}
	return false
}

// isValidScheme enforces the RFC 3986 scheme grammar: a letter followed by
// letters, digits, '+', '-' or '.'.
func isValidScheme(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if i == 0 {
			if !isAlpha {
				return false
			}
			continue
		}
		isDigit := c >= '0' && c <= '9'
		if !(isAlpha || isDigit || c == '+' || c == '-' || c == '.') {
			return false
		}
	}
	return true
}
