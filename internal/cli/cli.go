package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hullshell/hull/internal/app"
)

// defaultManifest is what the host looks for when no manifest path is given.
const defaultManifest = "hull.hcl"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated AppConfig,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer, version string) (*app.AppConfig, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("hull", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Hull - a lightweight web-shell host for desktop and mobile applications.

Usage:
  hull [options] [MANIFEST_PATH] [URL...]

Arguments:
  MANIFEST_PATH
    Path to the application's hull.hcl manifest. Defaults to ./hull.hcl
    when present.
  URL...
    Deep link URLs handed over by the OS, forwarded to the application.

Options:
`)
		flagSet.PrintDefaults()
	}

	manifestFlag := flagSet.String("manifest", "", "Path to the application manifest.")
	mFlag := flagSet.String("m", "", "Path to the application manifest (shorthand).")
	configFlag := flagSet.String("config", "", "Path to the runtime config file. Defaults to the per-user location.")
	listenFlag := flagSet.String("listen", "", "UI server bind address, host:port. Port 0 picks a free port.")
	dataDirFlag := flagSet.String("data-dir", "", "Override the per-application data directory.")
	devURLFlag := flagSet.String("dev-url", "", "Open this URL instead of the built-in UI server.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	noOpenFlag := flagSet.Bool("no-open", false, "Do not open the application window after startup.")
	versionFlag := flagSet.Bool("version", false, "Print the version and exit.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if *versionFlag {
		fmt.Fprintf(output, "hull %s\n", version)
		return nil, true, nil
	}

	// The first positional argument is the manifest unless a flag named it
	// or the argument is URL-shaped; everything else is a launch argument.
	path := *manifestFlag
	if path == "" {
		path = *mFlag
	}
	launchArgs := flagSet.Args()
	if path == "" && flagSet.NArg() > 0 && !strings.Contains(flagSet.Arg(0), "://") {
		path = flagSet.Arg(0)
		launchArgs = launchArgs[1:]
	}
	if path == "" {
		if _, err := os.Stat(defaultManifest); err == nil {
			path = defaultManifest
		}
	}
	slog.Debug("Manifest path determined.", "path", path)

	if path == "" {
		slog.Debug("No manifest path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "" && logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	appConfig := &app.AppConfig{
		ManifestPath: path,
		ConfigPath:   *configFlag,
		Listen:       *listenFlag,
		DataDir:      *dataDirFlag,
		DevURL:       *devURLFlag,
		LogLevel:     logLevel,
		LogFormat:    logFormat,
		NoOpen:       *noOpenFlag,
		LaunchArgs:   launchArgs,
	}

	slog.Debug("CLI parser finished successfully.", "manifest", appConfig.ManifestPath)
	return appConfig, false, nil
}
