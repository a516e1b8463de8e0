package deeplink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hullshell/hull/internal/event"
	"github.com/hullshell/hull/internal/testutil"
)

// commandResult scripts the outcome for one external tool by name.
type commandResult struct {
	stdout []byte
	stderr []byte
	code   int32
	err    error
}

// routedRunner replays per-tool results so a single test can fail one
// command while others succeed.
type routedRunner struct {
	results map[string]commandResult

	mu    sync.Mutex
	calls [][]string
}

func (r *routedRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))
	res := r.results[name]
	return res.stdout, res.stderr, res.code, res.err
}

func (r *routedRunner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = append([]string(nil), c...)
	}
	return out
}

func newTestBackend(t *testing.T, runner *routedRunner) *desktopEntryBackend {
	t.Helper()
	return &desktopEntryBackend{
		runner:  runner,
		appsDir: t.TempDir(),
		exePath: func() (string, error) { return "/opt/demo/demo", nil },
	}
}

func newTestPlugin(t *testing.T, b backend, schemesHCL string) (*Plugin, *testutil.FakeHost) {
	t.Helper()
	host := &testutil.FakeHost{ID: "com.example.demo", Name: "Demo"}
	if schemesHCL != "" {
		host.Blocks = map[string]hcl.Body{"deeplink": testutil.Body(t, schemesHCL)}
	}
	p := &Plugin{backend: b}
	require.NoError(t, p.Setup(context.Background(), host))
	return p, host
}

func TestSetup_DecodesSchemes(t *testing.T) {
	p, _ := newTestPlugin(t, unsupportedStub{}, `schemes = ["myapp", "myapp-dev"]`)
	assert.Equal(t, []string{"myapp", "myapp-dev"}, p.schemes)
}

func TestSetup_RejectsInvalidScheme(t *testing.T) {
	host := &testutil.FakeHost{
		ID:     "com.example.demo",
		Blocks: map[string]hcl.Body{"deeplink": testutil.Body(t, `schemes = ["9bad"]`)},
	}
	p := &Plugin{backend: unsupportedStub{}}

	err := p.Setup(context.Background(), host)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scheme '9bad'")
}

func TestRegisterAll_WithoutSchemesIsNoOp(t *testing.T) {
	runner := &routedRunner{}
	b := newTestBackend(t, runner)
	p, _ := newTestPlugin(t, b, "")

	require.NoError(t, p.RegisterAll(context.Background()))

	assert.Empty(t, runner.Calls())
}

func TestRegisterAll_WritesDesktopEntry(t *testing.T) {
	runner := &routedRunner{}
	b := newTestBackend(t, runner)
	p, _ := newTestPlugin(t, b, `schemes = ["myapp", "myapp-dev"]`)

	require.NoError(t, p.RegisterAll(context.Background()))

	raw, err := os.ReadFile(filepath.Join(b.appsDir, "com.example.demo-url.desktop"))
	require.NoError(t, err)
	entry := string(raw)
	assert.Contains(t, entry, "[Desktop Entry]")
	assert.Contains(t, entry, "Name=Demo")
	assert.Contains(t, entry, "Exec=/opt/demo/demo %u")
	assert.Contains(t, entry, "MimeType=x-scheme-handler/myapp;x-scheme-handler/myapp-dev;")

	calls := runner.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{"xdg-mime", "default", "com.example.demo-url.desktop", "x-scheme-handler/myapp"}, calls[0])
	assert.Equal(t, []string{"xdg-mime", "default", "com.example.demo-url.desktop", "x-scheme-handler/myapp-dev"}, calls[1])
	assert.Equal(t, "update-desktop-database", calls[2][0])
}

func TestRegisterAll_SurfacesXdgMimeFailure(t *testing.T) {
	runner := &routedRunner{results: map[string]commandResult{
		"xdg-mime": {stderr: []byte("no xdg"), code: 2, err: assert.AnError},
	}}
	b := newTestBackend(t, runner)
	p, _ := newTestPlugin(t, b, `schemes = ["myapp"]`)

	err := p.RegisterAll(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "assign handler for scheme 'myapp'")
	assert.Contains(t, err.Error(), "no xdg")
}

func TestRegisterAll_DatabaseRefreshIsBestEffort(t *testing.T) {
	runner := &routedRunner{results: map[string]commandResult{
		"update-desktop-database": {code: 127, err: assert.AnError},
	}}
	b := newTestBackend(t, runner)
	p, _ := newTestPlugin(t, b, `schemes = ["myapp"]`)

	assert.NoError(t, p.RegisterAll(context.Background()))
}

func TestUnregisterAll_RemovesEntry(t *testing.T) {
	runner := &routedRunner{}
	b := newTestBackend(t, runner)
	p, _ := newTestPlugin(t, b, `schemes = ["myapp"]`)
	require.NoError(t, p.RegisterAll(context.Background()))

	require.NoError(t, p.UnregisterAll(context.Background()))

	assert.NoFileExists(t, filepath.Join(b.appsDir, "com.example.demo-url.desktop"))
}

func TestIsRegistered(t *testing.T) {
	t.Run("true when entry exists and is the default handler", func(t *testing.T) {
		runner := &routedRunner{results: map[string]commandResult{
			"xdg-mime": {stdout: []byte("com.example.demo-url.desktop\n")},
		}}
		b := newTestBackend(t, runner)
		p, _ := newTestPlugin(t, b, `schemes = ["myapp"]`)
		require.NoError(t, os.WriteFile(filepath.Join(b.appsDir, "com.example.demo-url.desktop"), []byte("x"), 0o644))

		ok, err := p.IsRegistered(context.Background(), "myapp")

		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("false without the desktop entry", func(t *testing.T) {
		b := newTestBackend(t, &routedRunner{})
		p, _ := newTestPlugin(t, b, `schemes = ["myapp"]`)

		ok, err := p.IsRegistered(context.Background(), "myapp")

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("false when another handler won", func(t *testing.T) {
		runner := &routedRunner{results: map[string]commandResult{
			"xdg-mime": {stdout: []byte("org.other.app.desktop\n")},
		}}
		b := newTestBackend(t, runner)
		p, _ := newTestPlugin(t, b, `schemes = ["myapp"]`)
		require.NoError(t, os.WriteFile(filepath.Join(b.appsDir, "com.example.demo-url.desktop"), []byte("x"), 0o644))

		ok, err := p.IsRegistered(context.Background(), "myapp")

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("false for a scheme the app never claimed", func(t *testing.T) {
		runner := &routedRunner{}
		b := newTestBackend(t, runner)
		p, _ := newTestPlugin(t, b, `schemes = ["myapp"]`)

		ok, err := p.IsRegistered(context.Background(), "other")

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, runner.Calls())
	})
}

func TestOnEvent_ForwardsMatchingURLs(t *testing.T) {
	p, host := newTestPlugin(t, unsupportedStub{}, `schemes = ["myapp"]`)

	p.OnEvent(context.Background(), event.DeepLink{URLs: []string{
		"myapp://open/settings",
		"https://example.com",
		"MYAPP://second",
	}})

	events := host.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "deeplink.url", events[0].Name)
	assert.Equal(t,
		map[string][]string{"urls": {"myapp://open/settings", "MYAPP://second"}},
		events[0].Payload)
	assert.Equal(t, []string{"myapp://open/settings", "MYAPP://second"}, p.Current())
}

func TestOnEvent_IgnoresForeignSchemes(t *testing.T) {
	p, host := newTestPlugin(t, unsupportedStub{}, `schemes = ["myapp"]`)

	p.OnEvent(context.Background(), event.DeepLink{URLs: []string{"https://example.com", "not a url"}})

	assert.Empty(t, host.Events())
	assert.Empty(t, p.Current())
}

func TestOnEvent_IgnoresOtherEventKinds(t *testing.T) {
	p, host := newTestPlugin(t, unsupportedStub{}, `schemes = ["myapp"]`)

	p.OnEvent(context.Background(), event.Ready{})

	assert.Empty(t, host.Events())
}

func TestCommands(t *testing.T) {
	p, _ := newTestPlugin(t, unsupportedStub{}, `schemes = ["myapp"]`)
	p.OnEvent(context.Background(), event.DeepLink{URLs: []string{"myapp://x"}})

	t.Run("get_current returns the last activation", func(t *testing.T) {
		out, err := p.handleGetCurrent(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, map[string][]string{"urls": {"myapp://x"}}, out)
	})

	t.Run("is_registered requires a scheme", func(t *testing.T) {
		_, err := p.handleIsRegistered(context.Background(), json.RawMessage(`{}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheme is required")
	})
}

func TestValidScheme(t *testing.T) {
	valid := []string{"myapp", "my-app", "my.app", "web+demo", "a", "MyApp"}
	for _, s := range valid {
		assert.True(t, isValidScheme(s), s)
	}

	invalid := []string{"", "9app", "-app", "my app", "my_app", "app://"}
	for _, s := range invalid {
		assert.False(t, isValidScheme(s), s)
	}
}

// unsupportedStub fails every backend call, for tests that never reach the
// backend or expect the plugin layer to gate access.
type unsupportedStub struct{}

func (unsupportedStub) registerAll(context.Context, appInfo, []string) error {
	return ErrUnsupported
}

func (unsupportedStub) unregisterAll(context.Context, appInfo, []string) error {
	return ErrUnsupported
}

func (unsupportedStub) isRegistered(context.Context, appInfo, string) (bool, error) {
	return false, ErrUnsupported
}
