package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hullshell/hull/internal/testutil"
)

func newPlugin(t *testing.T, goos string, r *testutil.FakeRunner) *Plugin {
	t.Helper()
	p := New()
	p.goos = goos
	p.runner = r
	host := &testutil.FakeHost{ID: "com.example.demo", Name: "Demo"}
	require.NoError(t, p.Setup(context.Background(), host))
	return p
}

func notify(t *testing.T, p *Plugin, args string) (map[string]string, error) {
	t.Helper()
	out, err := p.handleNotify(context.Background(), json.RawMessage(args))
	if err != nil {
		return nil, err
	}
	res, ok := out.(map[string]string)
	require.True(t, ok)
	return res, nil
}

func TestNotify_Linux(t *testing.T) {
	runner := &testutil.FakeRunner{}
	p := newPlugin(t, "linux", runner)

	res, err := notify(t, p, `{"title":"Hello","body":"World"}`)

	require.NoError(t, err)
	assert.NotEmpty(t, res["id"])
	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"notify-send", "--app-name", "Demo", "Hello", "World"}, calls[0])
}

func TestNotify_LinuxWithoutBody(t *testing.T) {
	runner := &testutil.FakeRunner{}
	p := newPlugin(t, "linux", runner)

	_, err := notify(t, p, `{"title":"Ping"}`)

	require.NoError(t, err)
	assert.Equal(t, []string{"notify-send", "--app-name", "Demo", "Ping"}, runner.Calls()[0])
}

func TestNotify_KeepsCallerID(t *testing.T) {
	p := newPlugin(t, "linux", &testutil.FakeRunner{})

	res, err := notify(t, p, `{"id":"abc-123","title":"Hello"}`)

	require.NoError(t, err)
	assert.Equal(t, "abc-123", res["id"])
}

func TestNotify_Darwin(t *testing.T) {
	runner := &testutil.FakeRunner{}
	p := newPlugin(t, "darwin", runner)

	_, err := notify(t, p, `{"title":"Say \"hi\"","body":"World"}`)

	require.NoError(t, err)
	call := runner.Calls()[0]
	require.Len(t, call, 3)
	assert.Equal(t, "osascript", call[0])
	assert.Equal(t, "-e", call[1])
	assert.Equal(t, `display notification "World" with title "Say \"hi\""`, call[2])
}

func TestNotify_Windows(t *testing.T) {
	runner := &testutil.FakeRunner{}
	p := newPlugin(t, "windows", runner)

	_, err := notify(t, p, `{"title":"O'Brien <3","body":"World"}`)

	require.NoError(t, err)
	call := runner.Calls()[0]
	assert.Equal(t, "powershell", call[0])
	script := call[len(call)-1]
	assert.Contains(t, script, "ToastNotificationManager")
	assert.Contains(t, script, "CreateToastNotifier('com.example.demo')")
	assert.Contains(t, script, "O&apos;Brien &lt;3")
	assert.NotContains(t, script, "<3")
}

func TestNotify_RequiresTitle(t *testing.T) {
	p := newPlugin(t, "linux", &testutil.FakeRunner{})

	_, err := notify(t, p, `{"body":"no title"}`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
}

func TestNotify_SurfacesToolFailure(t *testing.T) {
	runner := &testutil.FakeRunner{
		Stderr: []byte("no notification daemon"),
		Code:   1,
		Err:    errors.New("exit status 1"),
	}
	p := newPlugin(t, "linux", runner)

	_, err := notify(t, p, `{"title":"Hello"}`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no notification daemon")
}

func TestNotify_UnsupportedPlatform(t *testing.T) {
	p := newPlugin(t, "plan9", &testutil.FakeRunner{})

	_, err := notify(t, p, `{"title":"Hello"}`)

	require.ErrorIs(t, err, ErrUnsupported)
}

func TestPermissions(t *testing.T) {
	t.Run("desktop platforms are granted", func(t *testing.T) {
		for _, goos := range []string{"linux", "darwin", "windows"} {
			p := newPlugin(t, goos, &testutil.FakeRunner{})

			granted, err := p.handleIsPermissionGranted(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, true, granted, goos)

			state, err := p.handleRequestPermission(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, "granted", state, goos)
		}
	})

	t.Run("platforms without a backend are denied", func(t *testing.T) {
		p := newPlugin(t, "plan9", &testutil.FakeRunner{})

		granted, err := p.handleIsPermissionGranted(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, false, granted)

		state, err := p.handleRequestPermission(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "denied", state)
	})
}
