package deeplink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/osexec"
)

// desktopEntryBackend implements scheme registration for freedesktop
// environments: it writes a hidden .desktop entry under the user's
// applications directory and assigns it as the x-scheme-handler default.
type desktopEntryBackend struct {
	runner  osexec.CommandRunner
	appsDir string
	exePath func() (string, error)
}

func newDesktopEntryBackend(runner osexec.CommandRunner) *desktopEntryBackend {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return &desktopEntryBackend{
		runner:  runner,
		appsDir: filepath.Join(dataHome, "applications"),
		exePath: os.Executable,
	}
}

func (b *desktopEntryBackend) registerAll(ctx context.Context, app appInfo, schemes []string) error {
	exe, err := b.exePath()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}
	if err := os.MkdirAll(b.appsDir, 0o755); err != nil {
		return fmt.Errorf("create applications directory: %w", err)
	}

	name := desktopFileName(app.id)
	path := filepath.Join(b.appsDir, name)
	if err := os.WriteFile(path, []byte(desktopEntry(app, exe, schemes)), 0o644); err != nil {
		return fmt.Errorf("write desktop entry: %w", err)
	}

	for _, scheme := range schemes {
		_, stderr, code, runErr := b.runner.Run(ctx,
			"xdg-mime", "default", name, "x-scheme-handler/"+scheme)
		if err := osexec.RunError(fmt.Sprintf("assign handler for scheme '%s'", scheme), stderr, code, runErr); err != nil {
			return err
		}
	}

	b.refreshDatabase(ctx)
	return nil
}

func (b *desktopEntryBackend) unregisterAll(ctx context.Context, app appInfo, _ []string) error {
	path := filepath.Join(b.appsDir, desktopFileName(app.id))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove desktop entry: %w", err)
	}
	b.refreshDatabase(ctx)
	return nil
}

func (b *desktopEntryBackend) isRegistered(ctx context.Context, app appInfo, scheme string) (bool, error) {
	name := desktopFileName(app.id)
	if _, err := os.Stat(filepath.Join(b.appsDir, name)); err != nil {
		return false, nil
	}

	stdout, stderr, code, runErr := b.runner.Run(ctx,
		"xdg-mime", "query", "default", "x-scheme-handler/"+scheme)
	if err := osexec.RunError(fmt.Sprintf("query handler for scheme '%s'", scheme), stderr, code, runErr); err != nil {
		return false, err
	}
	return strings.TrimSpace(string(stdout)) == name, nil
}

// refreshDatabase is best-effort: update-desktop-database is optional
// tooling and desktop environments rescan on their own.
func (b *desktopEntryBackend) refreshDatabase(ctx context.Context) {
	if _, _, _, err := b.runner.Run(ctx, "update-desktop-database", b.appsDir); err != nil {
		ctxlog.FromContext(ctx).Debug("Desktop database refresh failed.", "error", err)
	}
}

// desktopFileName is the stable entry name derived from the application id.
func desktopFileName(appID string) string {
	return appID + "-url.desktop"
}

// desktopEntry renders the freedesktop entry that routes scheme URLs to the
// executable.
func desktopEntry(app appInfo, exe string, schemes []string) string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	fmt.Fprintf(&b, "Name=%s\n", app.name)
	fmt.Fprintf(&b, "Exec=%s %%u\n", exe)
	b.WriteString("Terminal=false\n")
	b.WriteString("NoDisplay=true\n")
	fmt.Fprintf(&b, "MimeType=%s\n", schemeMimeTypes(schemes))
	return b.String()
}

func schemeMimeTypes(schemes []string) string {
	parts := make([]string, len(schemes))
	for i, s := range schemes {
		parts[i] = "x-scheme-handler/" + s
	}
	return strings.Join(parts, ";") + ";"
}
