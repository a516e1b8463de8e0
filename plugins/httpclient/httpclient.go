// Package httpclient proxies UI-initiated HTTP requests through a native
// client, filtered by the manifest's URL scope. The browser's own fetch is
// bound by CORS; this plugin is the escape hatch the manifest controls.
package httpclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"resty.dev/v3"

	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/registry"
)

// defaultTimeout bounds requests that carry no per-request timeout.
const defaultTimeout = 30 * time.Second

// Config is the schema for the plugin's manifest block.
type Config struct {
	// Allow and Deny are full-URL patterns; '*' matches any run of
	// characters. Deny wins; an empty allow list rejects everything.
	Allow []string `hcl:"allow,optional"`
	Deny  []string `hcl:"deny,optional"`
	// TimeoutMs replaces the default client timeout.
	TimeoutMs int64 `hcl:"timeout_ms,optional"`
}

// Plugin implements the http capability.
type Plugin struct {
	client *resty.Client
	scope  Scope
}

// New returns an unconfigured http plugin.
func New() *Plugin { return &Plugin{} }

// Name implements registry.Plugin.
func (p *Plugin) Name() string { return "http" }

// Setup decodes the manifest block and builds the shared client.
func (p *Plugin) Setup(ctx context.Context, host registry.Host) error {
	cfg := Config{}
	if body := host.PluginConfig(p.Name()); body != nil {
		if diags := gohcl.DecodeBody(body, nil, &cfg); diags.HasErrors() {
			return fmt.Errorf("decode http block: %w", diags)
		}
	}

	timeout := defaultTimeout
	if cfg.TimeoutMs > 0 {
		timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}

	p.scope = NewScope(cfg.Allow, cfg.Deny)
	p.client = resty.New().SetTimeout(timeout)

	if len(cfg.Allow) == 0 {
		ctxlog.FromContext(ctx).Debug("HTTP scope has no allow patterns; fetch requests will be rejected.")
	}
	return nil
}

// Close releases the client's idle connections.
func (p *Plugin) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

// Commands implements registry.Commander.
func (p *Plugin) Commands() map[string]registry.CommandFunc {
	return map[string]registry.CommandFunc{
		"fetch": p.handleFetch,
	}
}

// fetchArgs mirrors the request the UI passes to http.fetch. Body is base64
// so binary payloads survive the JSON bridge.
type fetchArgs struct {
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body"`
	TimeoutMs int64             `json:"timeout_ms"`
}

type fetchResult struct {
	Status     int               `json:"status"`
	StatusText string            `json:"status_text"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

func (p *Plugin) handleFetch(ctx context.Context, args json.RawMessage) (any, error) {
	in := fetchArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	target, err := url.Parse(in.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url '%s': %w", in.URL, err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("scheme '%s' is not allowed", target.Scheme)
	}
	if !p.scope.Allows(in.URL) {
		return nil, fmt.Errorf("url '%s' is blocked by the http scope", in.URL)
	}

	method := strings.ToUpper(in.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body []byte
	if in.Body != "" {
		body, err = base64.StdEncoding.DecodeString(in.Body)
		if err != nil {
			return nil, fmt.Errorf("decode request body: %w", err)
		}
	}

	if in.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(in.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	req := p.client.R().SetContext(ctx)
	for k, v := range in.Headers {
		req.SetHeader(k, v)
	}
	if len(body) > 0 && method != http.MethodGet && method != http.MethodHead {
		req.SetBody(body)
	}

	ctxlog.FromContext(ctx).Debug("Proxying HTTP request.", "method", method, "url", in.URL)

	res, err := req.Execute(method, in.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request to '%s': %w", in.URL, err)
	}

	headers := make(map[string]string, len(res.Header()))
	for k, vs := range res.Header() {
		headers[k] = strings.Join(vs, ", ")
	}

	return fetchResult{
		Status:     res.StatusCode(),
		StatusText: res.Status(),
		Headers:    headers,
		Body:       base64.StdEncoding.EncodeToString(res.Bytes()),
	}, nil
}
