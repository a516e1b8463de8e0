package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hullshell/hull/internal/testutil"
)

// SetupAppTest assembles an App around a throwaway manifest and config
// file, with debug logging captured in the returned buffer. The mutate
// callback can adjust the AppConfig before construction.
func SetupAppTest(t *testing.T, mutate func(cfg *AppConfig)) (*App, *testutil.SafeBuffer) {
	t.Helper()

	dir := t.TempDir()
	appConfig := &AppConfig{
		ManifestPath: writeTestManifest(t, dir),
		ConfigPath:   writeTestConfig(t, dir),
		DataDir:      filepath.Join(dir, "data"),
		LogLevel:     "debug",
		NoOpen:       true,
	}
	if mutate != nil {
		mutate(appConfig)
	}

	logBuffer := &testutil.SafeBuffer{}
	testApp := NewApp(logBuffer, appConfig)

	t.Cleanup(func() {
		if os.Getenv("HULL_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}

func writeTestManifest(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "hull.hcl")
	src := `
app "com.example.demo" {
  name    = "Demo"
  version = "1.2.3"
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// writeTestConfig pins the settings that would otherwise leak host state
// into tests: an ephemeral loopback port and no single-instance socket.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	src := `
listen          = "127.0.0.1:0"
single_instance = false
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}
