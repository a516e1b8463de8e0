package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hullshell/hull/internal/config"
	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/host"
	"github.com/hullshell/hull/internal/manifest"
	"github.com/hullshell/hull/internal/registry"
)

// AppConfig holds all the necessary configuration for an App instance to
// run: the manifest path plus the command-line overrides layered on top of
// the resolved runtime configuration. Zero values mean "not set".
type AppConfig struct {
	ManifestPath string
	ConfigPath   string

	Listen    string
	DataDir   string
	DevURL    string
	LogLevel  string
	LogFormat string
	NoOpen    bool

	// LaunchArgs are the positional command-line arguments the process was
	// started with, scanned for deep link URLs handed over by the OS.
	LaunchArgs []string
}

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	mf      *manifest.Manifest
	rt      config.Runtime
	builder *host.Builder
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger. Startup
// problems such as an unreadable config file or an invalid manifest are
// fatal and panic; entrypoints recover and turn them into an exit code.
func NewApp(outW io.Writer, appConfig *AppConfig) *App {
	if appConfig.ManifestPath == "" {
		panic(errors.New("ManifestPath is a required configuration field and cannot be empty"))
	}

	rt, err := config.Resolve(appConfig.ConfigPath)
	if err != nil {
		// A failure to resolve runtime configuration is a fatal startup error.
		panic(fmt.Errorf("failed to resolve runtime configuration: %w", err))
	}
	applyOverrides(&rt, appConfig)
	if err := rt.Validate(); err != nil {
		panic(fmt.Errorf("failed to resolve runtime configuration: %w", err))
	}

	logger := newLogger(rt.LogLevel, rt.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	mf, err := manifest.Load(ctx, appConfig.ManifestPath)
	if err != nil {
		panic(fmt.Errorf("failed to load manifest: %w", err))
	}
	logger.Debug("Manifest loaded.", "app", mf.App.ID, "version", mf.App.Version)

	builder := newBuilder(mf, rt, appConfig.LaunchArgs)
	logger.Debug("Platform plugin set attached.", "plugins", builder.Registry().Names())

	return &App{
		outW:    outW,
		logger:  logger,
		mf:      mf,
		rt:      rt,
		builder: builder,
	}
}

// applyOverrides layers command-line values on top of the resolved runtime
// configuration. Flags win over file and environment.
func applyOverrides(rt *config.Runtime, appConfig *AppConfig) {
	if appConfig.Listen != "" {
		rt.Listen = appConfig.Listen
	}
	if appConfig.DataDir != "" {
		rt.DataDir = appConfig.DataDir
	}
	if appConfig.DevURL != "" {
		rt.DevURL = appConfig.DevURL
	}
	if appConfig.LogLevel != "" {
		rt.LogLevel = appConfig.LogLevel
	}
	if appConfig.LogFormat != "" {
		rt.LogFormat = appConfig.LogFormat
	}
	if appConfig.NoOpen {
		rt.NoOpen = true
	}
}

// Registry returns the host's plugin registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.builder.Registry()
}

// Builder returns the underlying host builder so embedders can swap the
// window driver or command runner before Run.
func (a *App) Builder() *host.Builder {
	return a.builder
}
