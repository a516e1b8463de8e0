//go:build windows

package deeplink

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/windows/registry"

	"github.com/hullshell/hull/internal/osexec"
)

func newBackend(_ osexec.CommandRunner) backend {
	return classesBackend{}
}

// classesBackend registers schemes under HKCU\Software\Classes, the per-user
// URL protocol table. No elevation is required.
type classesBackend struct{}

func (classesBackend) registerAll(_ context.Context, app appInfo, schemes []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}
	for _, scheme := range schemes {
		if err := registerScheme(app, scheme, exe); err != nil {
			return fmt.Errorf("register scheme '%s': %w", scheme, err)
		}
	}
	return nil
}

func (classesBackend) unregisterAll(_ context.Context, _ appInfo, schemes []string) error {
	for _, scheme := range schemes {
		if err := deleteSchemeKeys(scheme); err != nil {
			return fmt.Errorf("unregister scheme '%s': %w", scheme, err)
		}
	}
	return nil
}

func (classesBackend) isRegistered(_ context.Context, _ appInfo, scheme string) (bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, `Software\Classes\`+scheme, registry.QUERY_VALUE)
	if err != nil {
		if err == registry.ErrNotExist {
			return false, nil
		}
		return false, err
	}
	defer key.Close()

	if _, _, err := key.GetStringValue("URL Protocol"); err != nil {
		if err == registry.ErrNotExist {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func registerScheme(app appInfo, scheme, exe string) error {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, `Software\Classes\`+scheme, registry.ALL_ACCESS)
	if err != nil {
		return err
	}
	defer key.Close()

	if err := key.SetStringValue("", "URL:"+app.name); err != nil {
		return err
	}
	if err := key.SetStringValue("URL Protocol", ""); err != nil {
		return err
	}

	cmd, _, err := registry.CreateKey(key, `shell\open\command`, registry.ALL_ACCESS)
	if err != nil {
		return err
	}
	defer cmd.Close()
	return cmd.SetStringValue("", fmt.Sprintf(`"%s" "%%1"`, exe))
}

func deleteSchemeKeys(scheme string) error {
	base := `Software\Classes\` + scheme
	for _, sub := range []string{`\shell\open\command`, `\shell\open`, `\shell`, ``} {
		err := registry.DeleteKey(registry.CURRENT_USER, base+sub)
		if err != nil && err != registry.ErrNotExist {
			return err
		}
	}
	return nil
}
