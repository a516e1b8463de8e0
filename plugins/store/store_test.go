package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hullshell/hull/internal/testutil"
)

// newPlugin opens a store plugin against a throwaway data directory and
// tears it down with the test.
func newPlugin(t *testing.T, host *testutil.FakeHost) *Plugin {
	t.Helper()
	if host.Data == "" {
		host.Data = t.TempDir()
	}
	p := New()
	require.NoError(t, p.Setup(context.Background(), host))
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// invoke runs one registered command and fails the test on a command error.
func invoke(t *testing.T, p *Plugin, name, args string) any {
	t.Helper()
	fn, ok := p.Commands()[name]
	require.True(t, ok, "command %q not registered", name)
	out, err := fn(context.Background(), json.RawMessage(args))
	require.NoError(t, err)
	return out
}

func TestSetup_CreatesDatabaseFile(t *testing.T) {
	host := &testutil.FakeHost{ID: "com.example.demo", Data: t.TempDir()}
	p := newPlugin(t, host)

	invoke(t, p, "set", `{"key":"probe","value":1}`)

	assert.FileExists(t, filepath.Join(host.Data, "store.db"))
}

func TestSetup_HonorsFileFromManifestBlock(t *testing.T) {
	host := &testutil.FakeHost{
		ID:   "com.example.demo",
		Data: t.TempDir(),
		Blocks: map[string]hcl.Body{
			"store": testutil.Body(t, `file = "settings.db"`),
		},
	}
	p := newPlugin(t, host)

	invoke(t, p, "set", `{"key":"probe","value":1}`)

	assert.FileExists(t, filepath.Join(host.Data, "settings.db"))
}

func TestCommands_RoundTrip(t *testing.T) {
	p := newPlugin(t, &testutil.FakeHost{})

	invoke(t, p, "set", `{"key":"theme","value":"dark"}`)
	invoke(t, p, "set", `{"key":"window","value":{"w":800,"h":600}}`)

	t.Run("get returns the stored JSON", func(t *testing.T) {
		out := invoke(t, p, "get", `{"key":"theme"}`)
		res, ok := out.(getResult)
		require.True(t, ok)
		assert.True(t, res.Exists)
		assert.JSONEq(t, `"dark"`, string(res.Value))
	})

	t.Run("has reports presence", func(t *testing.T) {
		assert.Equal(t, true, invoke(t, p, "has", `{"key":"theme"}`))
		assert.Equal(t, false, invoke(t, p, "has", `{"key":"missing"}`))
	})

	t.Run("keys are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"theme", "window"}, invoke(t, p, "keys", `{}`))
	})

	t.Run("entries returns every pair", func(t *testing.T) {
		out := invoke(t, p, "entries", `{}`)
		entries, ok := out.(map[string]json.RawMessage)
		require.True(t, ok)
		require.Len(t, entries, 2)
		assert.JSONEq(t, `{"w":800,"h":600}`, string(entries["window"]))
	})

	t.Run("length counts the store", func(t *testing.T) {
		assert.Equal(t, int64(2), invoke(t, p, "length", `{}`))
	})

	t.Run("delete reports whether the key existed", func(t *testing.T) {
		assert.Equal(t, true, invoke(t, p, "delete", `{"key":"theme"}`))
		assert.Equal(t, false, invoke(t, p, "delete", `{"key":"theme"}`))
		assert.Equal(t, int64(1), invoke(t, p, "length", `{}`))
	})

	t.Run("clear empties the store", func(t *testing.T) {
		invoke(t, p, "clear", `{}`)
		assert.Equal(t, int64(0), invoke(t, p, "length", `{}`))
	})
}

func TestGet_MissingKeyIsNotAnError(t *testing.T) {
	p := newPlugin(t, &testutil.FakeHost{})

	out := invoke(t, p, "get", `{"key":"absent"}`)

	res, ok := out.(getResult)
	require.True(t, ok)
	assert.False(t, res.Exists)
	assert.JSONEq(t, `null`, string(res.Value))
}

func TestStoredNullIsDistinguishable(t *testing.T) {
	p := newPlugin(t, &testutil.FakeHost{})

	invoke(t, p, "set", `{"key":"cursor","value":null}`)

	out := invoke(t, p, "get", `{"key":"cursor"}`)
	res := out.(getResult)
	assert.True(t, res.Exists)
	assert.JSONEq(t, `null`, string(res.Value))
}

func TestCommands_Validation(t *testing.T) {
	p := newPlugin(t, &testutil.FakeHost{})

	testCases := []struct {
		name    string
		command string
		args    string
		wantErr string
	}{
		{"set without key", "set", `{"value":1}`, "key is required"},
		{"set without value", "set", `{"key":"a"}`, "value is required"},
		{"get without key", "get", `{}`, "key is required"},
		{"delete without key", "delete", `{}`, "key is required"},
		{"malformed args", "get", `{"key":`, "decode command args"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fn := p.Commands()[tc.command]
			_, err := fn(context.Background(), json.RawMessage(tc.args))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNamedStoresAreIsolated(t *testing.T) {
	p := newPlugin(t, &testutil.FakeHost{})

	invoke(t, p, "set", `{"store":"session","key":"token","value":"abc"}`)
	invoke(t, p, "set", `{"store":"settings","key":"token","value":"xyz"}`)

	invoke(t, p, "clear", `{"store":"session"}`)

	assert.Equal(t, false, invoke(t, p, "has", `{"store":"session","key":"token"}`))
	out := invoke(t, p, "get", `{"store":"settings","key":"token"}`).(getResult)
	assert.JSONEq(t, `"xyz"`, string(out.Value))
}

func TestValuesSurviveReopen(t *testing.T) {
	host := &testutil.FakeHost{Data: t.TempDir()}

	first := New()
	require.NoError(t, first.Setup(context.Background(), host))
	invoke(t, first, "set", `{"key":"greeting","value":"hello"}`)
	invoke(t, first, "save", `{}`)
	require.NoError(t, first.Close())

	second := New()
	require.NoError(t, second.Setup(context.Background(), host))
	t.Cleanup(func() { _ = second.Close() })

	out := invoke(t, second, "get", `{"key":"greeting"}`).(getResult)
	assert.True(t, out.Exists)
	assert.JSONEq(t, `"hello"`, string(out.Value))
}

func TestClose_WithoutSetupIsSafe(t *testing.T) {
	require.NoError(t, New().Close())
}
