package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PositionalManifest(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, exit, err := Parse([]string{"app/hull.hcl"}, out, "dev")

	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "app/hull.hcl", cfg.ManifestPath)
	assert.Empty(t, cfg.Listen)
	assert.Empty(t, cfg.LogLevel)
	assert.False(t, cfg.NoOpen)
	assert.Empty(t, cfg.LaunchArgs)
}

func TestParse_AllFlags(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, exit, err := Parse([]string{
		"--manifest", "demo/hull.hcl",
		"--config", "demo/config.toml",
		"--listen", "127.0.0.1:4455",
		"--data-dir", "/tmp/demo-data",
		"--dev-url", "http://localhost:5173",
		"--log-level", "DEBUG",
		"--log-format", "json",
		"--no-open",
	}, out, "dev")

	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "demo/hull.hcl", cfg.ManifestPath)
	assert.Equal(t, "demo/config.toml", cfg.ConfigPath)
	assert.Equal(t, "127.0.0.1:4455", cfg.Listen)
	assert.Equal(t, "/tmp/demo-data", cfg.DataDir)
	assert.Equal(t, "http://localhost:5173", cfg.DevURL)
	assert.Equal(t, "debug", cfg.LogLevel, "level is lowercased")
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.NoOpen)
}

func TestParse_ShorthandManifestFlag(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, exit, err := Parse([]string{"-m", "demo/hull.hcl"}, out, "dev")

	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "demo/hull.hcl", cfg.ManifestPath)
}

func TestParse_LaunchURLs(t *testing.T) {
	t.Parallel()

	t.Run("after positional manifest", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse([]string{"demo/hull.hcl", "myapp://pair/42"}, out, "dev")

		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, "demo/hull.hcl", cfg.ManifestPath)
		assert.Equal(t, []string{"myapp://pair/42"}, cfg.LaunchArgs)
	})

	t.Run("url-shaped first argument is not a manifest", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse([]string{"-m", "demo/hull.hcl", "myapp://a", "myapp://b"}, out, "dev")

		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, "demo/hull.hcl", cfg.ManifestPath)
		assert.Equal(t, []string{"myapp://a", "myapp://b"}, cfg.LaunchArgs)
	})
}

func TestParse_NoManifestPrintsUsage(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, exit, err := Parse(nil, out, "dev")

	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Help(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, exit, err := Parse([]string{"-h"}, out, "dev")

	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "MANIFEST_PATH")
}

func TestParse_Version(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, exit, err := Parse([]string{"--version"}, out, "1.4.0")

	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "hull 1.4.0")
}

func TestParse_InvalidValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--frobnicate"}},
		{"bad log level", []string{"--log-level", "verbose", "demo/hull.hcl"}},
		{"bad log format", []string{"--log-format", "xml", "demo/hull.hcl"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			cfg, exit, err := Parse(tc.args, out, "dev")

			require.Error(t, err)
			assert.False(t, exit)
			assert.Nil(t, cfg)

			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}
