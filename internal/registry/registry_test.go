package registry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hullshell/hull/internal/event"
	"github.com/hullshell/hull/internal/testutil"
)

// stubPlugin is a minimal plugin recording lifecycle calls into a shared log.
type stubPlugin struct {
	name     string
	setupErr error
	log      *[]string
}

func (p *stubPlugin) Name() string { return p.name }

func (p *stubPlugin) Setup(_ context.Context, _ Host) error {
	if p.log != nil {
		*p.log = append(*p.log, "setup:"+p.name)
	}
	return p.setupErr
}

// fullPlugin additionally opts in to commands, events, and shutdown.
type fullPlugin struct {
	stubPlugin
	cmds     map[string]CommandFunc
	events   []event.Event
	closeErr error
}

func (p *fullPlugin) Commands() map[string]CommandFunc { return p.cmds }

func (p *fullPlugin) OnEvent(_ context.Context, ev event.Event) {
	p.events = append(p.events, ev)
}

func (p *fullPlugin) Close() error {
	if p.log != nil {
		*p.log = append(*p.log, "close:"+p.name)
	}
	return p.closeErr
}

func TestAttach(t *testing.T) {
	t.Run("preserves attach order", func(t *testing.T) {
		r := New()
		for _, name := range []string{"store", "notification", "deeplink"} {
			require.NoError(t, r.Attach(&stubPlugin{name: name}))
		}
		assert.Equal(t, []string{"store", "notification", "deeplink"}, r.Names())
		assert.Equal(t, 3, r.Len())
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		r := New()
		require.NoError(t, r.Attach(&stubPlugin{name: "store"}))
		err := r.Attach(&stubPlugin{name: "store"})
		require.ErrorIs(t, err, ErrPluginExists)
	})

	t.Run("rejects nil", func(t *testing.T) {
		r := New()
		require.ErrorIs(t, r.Attach(nil), ErrPluginNil)
	})

	t.Run("rejects malformed names", func(t *testing.T) {
		r := New()
		for _, name := range []string{"", "Store", "has space", ".edge", "edge.", "a..b", "-lead"} {
			err := r.Attach(&stubPlugin{name: name})
			assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
		}
	})
}

func TestIsValidName(t *testing.T) {
	valid := []string{"store", "http", "deep-link", "scanner_v2", "a.b.c", "x9"}
	for _, name := range valid {
		assert.True(t, isValidName(name), "expected %q to be valid", name)
	}
	invalid := []string{"", "A", "a b", "a..b", ".a", "a.", "a--", "über"}
	for _, name := range invalid {
		assert.False(t, isValidName(name), "expected %q to be invalid", name)
	}
}

func TestSetup(t *testing.T) {
	t.Run("runs plugins in attach order", func(t *testing.T) {
		var log []string
		r := New()
		require.NoError(t, r.Attach(&stubPlugin{name: "one", log: &log}))
		require.NoError(t, r.Attach(&stubPlugin{name: "two", log: &log}))
		require.NoError(t, r.Attach(&stubPlugin{name: "three", log: &log}))

		require.NoError(t, r.Setup(context.Background(), &testutil.FakeHost{}))
		assert.Equal(t, []string{"setup:one", "setup:two", "setup:three"}, log)
	})

	t.Run("stops at first failing plugin", func(t *testing.T) {
		var log []string
		boom := errors.New("boom")
		r := New()
		require.NoError(t, r.Attach(&stubPlugin{name: "one", log: &log}))
		require.NoError(t, r.Attach(&stubPlugin{name: "two", log: &log, setupErr: boom}))
		require.NoError(t, r.Attach(&stubPlugin{name: "three", log: &log}))

		err := r.Setup(context.Background(), &testutil.FakeHost{})
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), `plugin "two"`)
		assert.Equal(t, []string{"setup:one", "setup:two"}, log)
	})

	t.Run("cannot run twice", func(t *testing.T) {
		r := New()
		require.NoError(t, r.Setup(context.Background(), &testutil.FakeHost{}))
		require.Error(t, r.Setup(context.Background(), &testutil.FakeHost{}))
	})
}

func TestDispatch(t *testing.T) {
	newEchoRegistry := func(t *testing.T) *Registry {
		t.Helper()
		p := &fullPlugin{stubPlugin: stubPlugin{name: "echo"}}
		p.cmds = map[string]CommandFunc{
			"say": func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					Text string `json:"text"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return in.Text, nil
			},
		}
		r := New()
		require.NoError(t, r.Attach(p))
		require.NoError(t, r.Setup(context.Background(), &testutil.FakeHost{}))
		return r
	}

	t.Run("round trip", func(t *testing.T) {
		r := newEchoRegistry(t)
		out, err := r.Dispatch(context.Background(), "echo.say", json.RawMessage(`{"text":"hi"}`))
		require.NoError(t, err)
		assert.Equal(t, "hi", out)
	})

	t.Run("unknown command", func(t *testing.T) {
		r := newEchoRegistry(t)
		_, err := r.Dispatch(context.Background(), "echo.shout", nil)
		require.ErrorIs(t, err, ErrUnknownCommand)
	})

	t.Run("identifiers are plugin qualified", func(t *testing.T) {
		r := newEchoRegistry(t)
		assert.Equal(t, []string{"echo.say"}, r.CommandIDs())
	})
}

func TestDeliver(t *testing.T) {
	// Only plugins implementing EventHandler see events; others are skipped.
	handler := &fullPlugin{stubPlugin: stubPlugin{name: "handler"}}
	plain := &stubPlugin{name: "plain"}
	r := New()
	require.NoError(t, r.Attach(plain))
	require.NoError(t, r.Attach(handler))
	require.NoError(t, r.Setup(context.Background(), &testutil.FakeHost{}))

	r.Deliver(context.Background(), event.Ready{})
	r.Deliver(context.Background(), event.DeepLink{URLs: []string{"app://x"}})

	require.Len(t, handler.events, 2)
	assert.Equal(t, event.KindReady, handler.events[0].Kind())
	assert.Equal(t, event.KindDeepLink, handler.events[1].Kind())
}

func TestClose(t *testing.T) {
	var log []string
	failing := errors.New("close failed")
	first := &fullPlugin{stubPlugin: stubPlugin{name: "first", log: &log}}
	second := &fullPlugin{stubPlugin: stubPlugin{name: "second", log: &log}, closeErr: failing}
	r := New()
	require.NoError(t, r.Attach(first))
	require.NoError(t, r.Attach(second))
	require.NoError(t, r.Setup(context.Background(), &testutil.FakeHost{}))
	log = nil

	err := r.Close()

	// Reverse attach order, and the one failure surfaces.
	assert.Equal(t, []string{"close:second", "close:first"}, log)
	require.ErrorIs(t, err, failing)
}
