// Package scanner decodes barcodes from camera frames supplied by the
// embedding native layer. The plugin owns the decode loop; frame capture
// and permission dialogs stay with the platform Source.
package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/registry"
)

// ErrNoCamera reports that no camera source has been registered by the
// embedding layer.
var ErrNoCamera = errors.New("no camera source registered")

// Source supplies camera frames and owns the platform permission dialogs.
// The embedding native layer registers one via SetSource before the host
// runs; without it every scan fails with ErrNoCamera.
type Source interface {
	// Frames starts capture and returns a frame stream. The stream closes
	// when ctx ends or the camera stops.
	Frames(ctx context.Context) (<-chan image.Image, error)
	CheckPermissions(ctx context.Context) (string, error)
	RequestPermissions(ctx context.Context) (string, error)
	OpenAppSettings(ctx context.Context) error
}

// knownFormats is the barcode format vocabulary accepted in manifests and
// scan requests, lowercase forms of the underlying decoder names.
var knownFormats = []string{
	"qr_code", "data_matrix", "aztec",
	"ean_8", "ean_13", "upc_a", "upc_e",
	"code_39", "code_93", "code_128", "itf", "codabar",
}

// Config is the schema for the plugin's manifest block.
type Config struct {
	// Formats restricts which barcode formats scans may request. Empty
	// allows all supported formats.
	Formats []string `hcl:"formats,optional"`
}

// ScanResult is returned by scanner.scan and emitted as the scanner.scan
// event.
type ScanResult struct {
	Format string `json:"format"`
	Text   string `json:"text"`
}

// Plugin implements the barcode scanner capability.
type Plugin struct {
	host    registry.Host
	formats []string

	mu         sync.Mutex
	source     Source
	cancelScan context.CancelFunc
}

// New returns a scanner plugin with no camera source attached.
func New() *Plugin { return &Plugin{} }

// SetSource registers the platform camera source. Passing nil detaches it.
func (p *Plugin) SetSource(src Source) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = src
}

// Name implements registry.Plugin.
func (p *Plugin) Name() string { return "scanner" }

// Setup decodes and validates the manifest format allowlist.
func (p *Plugin) Setup(_ context.Context, host registry.Host) error {
	cfg := Config{}
	if body := host.PluginConfig(p.Name()); body != nil {
		if diags := gohcl.DecodeBody(body, nil, &cfg); diags.HasErrors() {
			return fmt.Errorf("decode scanner block: %w", diags)
		}
	}
	for _, f := range cfg.Formats {
		if !containsFormat(knownFormats, f) {
			return fmt.Errorf("unknown barcode format '%s'", f)
		}
	}
	p.host = host
	p.formats = cfg.Formats
	return nil
}

// Commands implements registry.Commander.
func (p *Plugin) Commands() map[string]registry.CommandFunc {
	return map[string]registry.CommandFunc{
		"scan":                p.handleScan,
		"cancel":              p.handleCancel,
		"check_permissions":   p.handleCheckPermissions,
		"request_permissions": p.handleRequestPermissions,
		"open_app_settings":   p.handleOpenAppSettings,
	}
}

type scanArgs struct {
	Formats   []string `json:"formats"`
	TimeoutMs int64    `json:"timeout_ms"`
}

func (p *Plugin) handleScan(ctx context.Context, args json.RawMessage) (any, error) {
	in := scanArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}

	formats, err := p.effectiveFormats(in.Formats)
	if err != nil {
		return nil, err
	}
	readers, err := readersFor(formats)
	if err != nil {
		return nil, err
	}

	src := p.currentSource()
	if src == nil {
		return nil, ErrNoCamera
	}

	scanCtx, cancel := context.WithCancel(ctx)
	if in.TimeoutMs > 0 {
		scanCtx, cancel = context.WithTimeout(ctx, time.Duration(in.TimeoutMs)*time.Millisecond)
	}
	defer cancel()

	if err := p.beginScan(cancel); err != nil {
		return nil, err
	}
	defer p.endScan()

	frames, err := src.Frames(scanCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to start camera capture: %w", err)
	}

	for {
		select {
		case <-scanCtx.Done():
			return nil, fmt.Errorf("scan ended before a barcode was found: %w", scanCtx.Err())
		case frame, ok := <-frames:
			if !ok {
				return nil, fmt.Errorf("camera stream ended before a barcode was found")
			}
			hit, found := decodeFrame(frame, readers, formats)
			if !found {
				continue
			}
			if err := p.host.Emit("scanner.scan", hit); err != nil {
				ctxlog.FromContext(ctx).Warn("Failed to emit scan event.", "error", err)
			}
			return hit, nil
		}
	}
}

func (p *Plugin) handleCancel(_ context.Context, _ json.RawMessage) (any, error) {
	p.mu.Lock()
	cancel := p.cancelScan
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil, nil
}

func (p *Plugin) handleCheckPermissions(ctx context.Context, _ json.RawMessage) (any, error) {
	src := p.currentSource()
	if src == nil {
		return nil, ErrNoCamera
	}
	state, err := src.CheckPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check camera permissions: %w", err)
	}
	return map[string]string{"camera": state}, nil
}

func (p *Plugin) handleRequestPermissions(ctx context.Context, _ json.RawMessage) (any, error) {
	src := p.currentSource()
	if src == nil {
		return nil, ErrNoCamera
	}
	state, err := src.RequestPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to request camera permissions: %w", err)
	}
	return map[string]string{"camera": state}, nil
}

func (p *Plugin) handleOpenAppSettings(ctx context.Context, _ json.RawMessage) (any, error) {
	src := p.currentSource()
	if src == nil {
		return nil, ErrNoCamera
	}
	if err := src.OpenAppSettings(ctx); err != nil {
		return nil, fmt.Errorf("failed to open app settings: %w", err)
	}
	return nil, nil
}

func (p *Plugin) currentSource() Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

func (p *Plugin) beginScan(cancel context.CancelFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelScan != nil {
		return fmt.Errorf("a scan is already in progress")
	}
	p.cancelScan = cancel
	return nil
}

func (p *Plugin) endScan() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelScan = nil
}

func (p *Plugin) scanning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelScan != nil
}

// effectiveFormats resolves the request against the manifest allowlist.
func (p *Plugin) effectiveFormats(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return p.formats, nil
	}
	for _, f := range requested {
		if !containsFormat(knownFormats, f) {
			return nil, fmt.Errorf("unknown barcode format '%s'", f)
		}
		if len(p.formats) > 0 && !containsFormat(p.formats, f) {
			return nil, fmt.Errorf("format '%s' is not allowed by the manifest", f)
		}
	}
	return requested, nil
}

var decodeHints = map[gozxing.DecodeHintType]interface{}{
	gozxing.DecodeHintType_TRY_HARDER: true,
}

// readersFor builds the decoder set for the requested formats. All 1D
// formats share the multi-format one-dimensional reader.
func readersFor(formats []string) ([]gozxing.Reader, error) {
	if len(formats) == 0 {
		return []gozxing.Reader{
			qrcode.NewQRCodeReader(),
			oned.NewMultiFormatOneDReader(nil),
			datamatrix.NewDataMatrixReader(),
			aztec.NewAztecReader(),
		}, nil
	}

	var readers []gozxing.Reader
	oneD := false
	for _, f := range formats {
		switch f {
		case "qr_code":
			readers = append(readers, qrcode.NewQRCodeReader())
		case "data_matrix":
			readers = append(readers, datamatrix.NewDataMatrixReader())
		case "aztec":
			readers = append(readers, aztec.NewAztecReader())
		case "ean_8", "ean_13", "upc_a", "upc_e", "code_39", "code_93", "code_128", "itf", "codabar":
			oneD = true
		default:
			return nil, fmt.Errorf("unknown barcode format '%s'", f)
		}
	}
	if oneD {
		readers = append(readers, oned.NewMultiFormatOneDReader(nil))
	}
	return readers, nil
}

// decodeFrame tries every reader against one frame. A miss is normal while
// the camera hunts for focus; only a hit is reported.
func decodeFrame(frame image.Image, readers []gozxing.Reader, allowed []string) (ScanResult, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(frame)
	if err != nil {
		return ScanResult{}, false
	}
	for _, r := range readers {
		result, err := r.Decode(bmp, decodeHints)
		if err != nil {
			continue
		}
		format := strings.ToLower(result.GetBarcodeFormat().String())
		if len(allowed) > 0 && !containsFormat(allowed, format) {
			continue
		}
		return ScanResult{Format: format, Text: result.GetText()}, true
	}
	return ScanResult{}, false
}

func containsFormat(formats []string, f string) bool {
	for _, x := range formats {
		if x == f {
			return true
		}
	}
	return false
}
