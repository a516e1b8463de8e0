// Package manifest loads and validates the HCL application manifest that
// describes the hosted application: its identity, window preferences, asset
// bundle, and per-plugin configuration blocks.
package manifest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/hullshell/hull/internal/ctxlog"
)

// --- Manifest structures ---

// Window carries the preferred window geometry for the application shell.
// On desktop it parameterizes the opened browser window; mobile ignores it.
type Window struct {
	Title      string `hcl:"title,optional"`
	Width      int    `hcl:"width,optional"`
	Height     int    `hcl:"height,optional"`
	Fullscreen bool   `hcl:"fullscreen,optional"`
}

// PluginBlock is one labeled `plugin` block. Its body is handed verbatim to
// the matching plugin, which decodes it against its own schema.
type PluginBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// App is the identity block of the manifest.
type App struct {
	ID      string         `hcl:"id,label"`
	Name    string         `hcl:"name"`
	Version string         `hcl:"version,optional"`
	Extra   cty.Value      `hcl:"extra,optional"`
	Window  *Window        `hcl:"window,block"`
	Plugins []*PluginBlock `hcl:"plugin,block"`
}

// Assets points the UI server at the application's bundled frontend. When
// absent, the host serves its built-in placeholder page.
type Assets struct {
	Dir   string `hcl:"dir"`
	Index string `hcl:"index,optional"`
	SPA   bool   `hcl:"spa,optional"`
}

// Manifest is the top-level structure of a hull.hcl file.
type Manifest struct {
	App    *App     `hcl:"app,block"`
	Assets *Assets  `hcl:"assets,block"`
	Body   hcl.Body `hcl:",remain"`

	// baseDir anchors relative asset paths to the manifest's directory.
	baseDir string
}

// --- Loading ---

// Load parses and validates the manifest file at path.
func Load(ctx context.Context, path string) (*Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding application manifest.", "path", path)
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %s", path, diags.Error())
	}
	m, err := decode(ctx, file, path)
	if err != nil {
		return nil, err
	}
	m.baseDir = filepath.Dir(path)
	return m, nil
}

// Parse parses and validates manifest source, for callers that already hold
// the bytes. The filename only labels diagnostics.
func Parse(ctx context.Context, src []byte, filename string) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %s", filename, diags.Error())
	}
	return decode(ctx, file, filename)
}

func decode(ctx context.Context, file *hcl.File, name string) (*Manifest, error) {
	var m Manifest
	diags := gohcl.DecodeBody(file.Body, nil, &m)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %s", name, diags.Error())
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", name, err)
	}
	m.applyDefaults()

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Successfully decoded manifest.", "app_id", m.App.ID, "plugins_configured", len(m.App.Plugins))
	return &m, nil
}

// --- Validation and defaults ---

func (m *Manifest) validate() error {
	if m.App == nil {
		return fmt.Errorf("missing required 'app' block")
	}
	if !isValidAppID(m.App.ID) {
		return fmt.Errorf("app identifier %q is not a reverse-DNS identifier (e.g. \"com.example.app\")", m.App.ID)
	}
	if strings.TrimSpace(m.App.Name) == "" {
		return fmt.Errorf("app %q: name is required", m.App.ID)
	}
	seen := make(map[string]struct{}, len(m.App.Plugins))
	for _, p := range m.App.Plugins {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate plugin block %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	if m.Assets != nil && strings.TrimSpace(m.Assets.Dir) == "" {
		return fmt.Errorf("assets block: dir is required")
	}
	return nil
}

func (m *Manifest) applyDefaults() {
	if m.App.Window == nil {
		m.App.Window = &Window{}
	}
	w := m.App.Window
	if w.Title == "" {
		w.Title = m.App.Name
	}
	if w.Width <= 0 {
		w.Width = 1024
	}
	if w.Height <= 0 {
		w.Height = 768
	}
	if m.App.Version == "" {
		m.App.Version = "0.0.0"
	}
	if m.Assets != nil && m.Assets.Index == "" {
		m.Assets.Index = "index.html"
	}
}

// isValidAppID accepts reverse-DNS identifiers: two or more dot-separated
// segments, each starting with a lowercase letter followed by lowercase
// letters, digits, or hyphens.
func isValidAppID(id string) bool {
	segments := strings.Split(id, ".")
	if len(segments) < 2 {
		return false
	}
	for _, seg := range segments {
		if seg == "" {
			return false
		}
		for i := 0; i < len(seg); i++ {
			c := seg[i]
			isLower := c >= 'a' && c <= 'z'
			isDigit := c >= '0' && c <= '9'
			if i == 0 && !isLower {
				return false
			}
			if !(isLower || isDigit || c == '-') {
				return false
			}
		}
	}
	return true
}

// --- Accessors ---

// AssetsDir returns the absolute-or-manifest-relative assets directory,
// empty when the manifest bundles no assets.
func (m *Manifest) AssetsDir() string {
	if m.Assets == nil {
		return ""
	}
	if filepath.IsAbs(m.Assets.Dir) || m.baseDir == "" {
		return m.Assets.Dir
	}
	return filepath.Join(m.baseDir, m.Assets.Dir)
}

// PluginBody returns the configuration block body for a plugin, or nil when
// the manifest has none for it.
func (m *Manifest) PluginBody(name string) hcl.Body {
	for _, p := range m.App.Plugins {
		if p.Name == name {
			return p.Body
		}
	}
	return nil
}

// Metadata returns the app's extra attributes as a map, empty when the
// manifest declares none or declares a non-object value.
func (m *Manifest) Metadata() map[string]cty.Value {
	v := m.App.Extra
	if v.IsNull() || !v.IsKnown() || !v.Type().IsObjectType() {
		return map[string]cty.Value{}
	}
	return v.AsValueMap()
}

// Default returns a minimal valid manifest, used by tests and by the host
// when run without one.
func Default() *Manifest {
	m := &Manifest{
		App: &App{
			ID:   "com.example.app",
			Name: "Example",
		},
	}
	m.applyDefaults()
	return m
}
