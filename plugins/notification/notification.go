// Package notification raises native desktop notifications through each
// platform's own tooling: notify-send on Linux, osascript on macOS, and a
// PowerShell WinRT toast on Windows.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/osexec"
	"github.com/hullshell/hull/internal/registry"
)

// ErrUnsupported reports that the current platform has no notification
// backend.
var ErrUnsupported = errors.New("notifications are not supported on this platform")

// Plugin implements the notification capability.
type Plugin struct {
	runner  osexec.CommandRunner
	goos    string
	appName string
	appID   string
}

// New returns a notification plugin bound to the current platform.
func New() *Plugin {
	return &Plugin{runner: osexec.ExecRunner{}, goos: runtime.GOOS}
}

// Name implements registry.Plugin.
func (p *Plugin) Name() string { return "notification" }

// Setup records the application identity shown as the notification source.
func (p *Plugin) Setup(_ context.Context, host registry.Host) error {
	p.appName = host.AppName()
	p.appID = host.AppID()
	return nil
}

// Commands implements registry.Commander.
func (p *Plugin) Commands() map[string]registry.CommandFunc {
	return map[string]registry.CommandFunc{
		"notify":                p.handleNotify,
		"is_permission_granted": p.handleIsPermissionGranted,
		"request_permission":    p.handleRequestPermission,
	}
}

// notifyArgs mirrors the options the UI passes to notification.notify.
type notifyArgs struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (p *Plugin) handleNotify(ctx context.Context, args json.RawMessage) (any, error) {
	in := notifyArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	argv, err := notifyArgv(p.goos, p.appName, p.appID, in)
	if err != nil {
		return nil, err
	}

	_, stderr, code, runErr := p.runner.Run(ctx, argv[0], argv[1:]...)
	if err := osexec.RunError("failed to send notification", stderr, code, runErr); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("Notification sent.", "id", in.ID)
	return map[string]string{"id": in.ID}, nil
}

func (p *Plugin) handleIsPermissionGranted(_ context.Context, _ json.RawMessage) (any, error) {
	return p.supported(), nil
}

func (p *Plugin) handleRequestPermission(_ context.Context, _ json.RawMessage) (any, error) {
	if p.supported() {
		return "granted", nil
	}
	return "denied", nil
}

// supported reports whether a notification backend exists for the platform.
// Desktop targets never prompt, so permission is granted exactly when a
// backend exists.
func (p *Plugin) supported() bool {
	switch p.goos {
	case "linux", "darwin", "windows":
		return true
	}
	return false
}

// notifyArgv builds the platform command that displays one notification.
func notifyArgv(goos, appName, appID string, n notifyArgs) ([]string, error) {
	switch goos {
	case "linux":
		argv := []string{"notify-send", "--app-name", appName, n.Title}
		if n.Body != "" {
			argv = append(argv, n.Body)
		}
		return argv, nil
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s",
			appleScriptString(n.Body), appleScriptString(n.Title))
		return []string{"osascript", "-e", script}, nil
	case "windows":
		return []string{
			"powershell", "-NoProfile", "-NonInteractive", "-WindowStyle", "Hidden",
			"-Command", toastScript(appID, n),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, goos)
	}
}

// appleScriptString quotes a value for embedding in an osascript expression.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// toastScript renders the PowerShell snippet that raises a WinRT toast for
// the application's AppUserModelID.
func toastScript(appID string, n notifyArgs) string {
	xml := fmt.Sprintf(
		`<toast><visual><binding template="ToastGeneric"><text>%s</text><text>%s</text></binding></visual></toast>`,
		xmlEscape(n.Title), xmlEscape(n.Body))

	var b strings.Builder
	b.WriteString("[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] > $null;")
	b.WriteString("$xml = New-Object Windows.Data.Xml.Dom.XmlDocument;")
	fmt.Fprintf(&b, "$xml.LoadXml('%s');", psQuote(xml))
	b.WriteString("$toast = New-Object Windows.UI.Notifications.ToastNotification $xml;")
	fmt.Fprintf(&b, "[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('%s').Show($toast)", psQuote(appID))
	return b.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;",
)

func xmlEscape(s string) string { return xmlEscaper.Replace(s) }

// psQuote doubles single quotes for PowerShell single-quoted literals.
func psQuote(s string) string { return strings.ReplaceAll(s, "'", "''") }
