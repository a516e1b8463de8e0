//go:build unix

package host

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnixGuard_PrimaryAndSecondary(t *testing.T) {
	// Scope the guard socket to this test.
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	ctx := context.Background()

	primary := newInstanceGuard("com.example.guard", t.TempDir())
	ok, err := primary.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok, "first process becomes the primary")
	defer primary.Close()

	secondary := newInstanceGuard("com.example.guard", t.TempDir())
	ok, err = secondary.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok, "second process yields")

	require.NoError(t, secondary.Forward(ctx, []string{"app://handed-over"}))

	select {
	case urls := <-primary.Notifications():
		assert.Equal(t, []string{"app://handed-over"}, urls)
	case <-time.After(5 * time.Second):
		t.Fatal("primary never received the forwarded URLs")
	}
}

func TestUnixGuard_StaleSocketIsReclaimed(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	ctx := context.Background()

	// A crashed primary can leave a dead socket path behind; a fresh launch
	// must reclaim it instead of yielding to a ghost.
	path := guardSocketPath("com.example.stale")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	next := newInstanceGuard("com.example.stale", t.TempDir())
	ok, err := next.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "stale socket must not block a fresh launch")
	next.Close()
}

func TestUnixGuard_DifferentAppsDoNotCollide(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	ctx := context.Background()

	a := newInstanceGuard("com.example.one", t.TempDir())
	b := newInstanceGuard("com.example.two", t.TempDir())
	okA, err := a.Acquire(ctx)
	require.NoError(t, err)
	okB, err := b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, okA)
	assert.True(t, okB, "distinct app ids own distinct sockets")
	a.Close()
	b.Close()
}
