// Package store persists named key/value collections for the UI in a single
// SQLite database under the application data directory.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/registry"
)

// defaultStore is the collection used when a caller omits the store name.
const defaultStore = "default"

// Config is the schema for the plugin's manifest block.
type Config struct {
	// File is the database file, resolved against the application data
	// directory when relative.
	File string `hcl:"file,optional"`
}

// Plugin implements the store capability over SQLite.
type Plugin struct {
	db *database
}

// New returns an unconfigured store plugin.
func New() *Plugin { return &Plugin{} }

// Name implements registry.Plugin.
func (p *Plugin) Name() string { return "store" }

// Setup decodes the manifest block and opens the backing database.
func (p *Plugin) Setup(ctx context.Context, host registry.Host) error {
	cfg := Config{}
	if body := host.PluginConfig(p.Name()); body != nil {
		if diags := gohcl.DecodeBody(body, nil, &cfg); diags.HasErrors() {
			return fmt.Errorf("decode store block: %w", diags)
		}
	}
	if cfg.File == "" {
		cfg.File = "store.db"
	}
	path := cfg.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(host.DataDir(), path)
	}

	db, err := openDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to open store database '%s': %w", path, err)
	}
	p.db = db

	ctxlog.FromContext(ctx).Debug("Store database ready.", "path", path)
	return nil
}

// Close releases the SQLite handle.
func (p *Plugin) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.close()
}

// Commands implements registry.Commander.
func (p *Plugin) Commands() map[string]registry.CommandFunc {
	return map[string]registry.CommandFunc{
		"get":     p.handleGet,
		"set":     p.handleSet,
		"has":     p.handleHas,
		"delete":  p.handleDelete,
		"clear":   p.handleClear,
		"keys":    p.handleKeys,
		"entries": p.handleEntries,
		"length":  p.handleLength,
		"save":    p.handleSave,
	}
}

// keyArgs addresses one entry in a named store.
type keyArgs struct {
	Store string `json:"store"`
	Key   string `json:"key"`
}

type setArgs struct {
	Store string          `json:"store"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type storeArgs struct {
	Store string `json:"store"`
}

// getResult carries the value and whether the key existed. Value is JSON
// null for missing keys so the UI can distinguish "stored null" via Exists.
type getResult struct {
	Value  json.RawMessage `json:"value"`
	Exists bool            `json:"exists"`
}

func (p *Plugin) handleGet(ctx context.Context, args json.RawMessage) (any, error) {
	in := keyArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	value, exists, err := p.db.get(ctx, storeName(in.Store), in.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to read key '%s': %w", in.Key, err)
	}
	if !exists {
		return getResult{Value: json.RawMessage("null")}, nil
	}
	return getResult{Value: value, Exists: true}, nil
}

func (p *Plugin) handleSet(ctx context.Context, args json.RawMessage) (any, error) {
	in := setArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	if len(in.Value) == 0 {
		return nil, fmt.Errorf("value is required")
	}
	if err := p.db.set(ctx, storeName(in.Store), in.Key, in.Value); err != nil {
		return nil, fmt.Errorf("failed to write key '%s': %w", in.Key, err)
	}
	return nil, nil
}

func (p *Plugin) handleHas(ctx context.Context, args json.RawMessage) (any, error) {
	in := keyArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	_, exists, err := p.db.get(ctx, storeName(in.Store), in.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to read key '%s': %w", in.Key, err)
	}
	return exists, nil
}

func (p *Plugin) handleDelete(ctx context.Context, args json.RawMessage) (any, error) {
	in := keyArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	existed, err := p.db.delete(ctx, storeName(in.Store), in.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to delete key '%s': %w", in.Key, err)
	}
	return existed, nil
}

func (p *Plugin) handleClear(ctx context.Context, args json.RawMessage) (any, error) {
	in := storeArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := p.db.clear(ctx, storeName(in.Store)); err != nil {
		return nil, fmt.Errorf("failed to clear store '%s': %w", storeName(in.Store), err)
	}
	return nil, nil
}

func (p *Plugin) handleKeys(ctx context.Context, args json.RawMessage) (any, error) {
	in := storeArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	keys, err := p.db.keys(ctx, storeName(in.Store))
	if err != nil {
		return nil, fmt.Errorf("failed to list keys of store '%s': %w", storeName(in.Store), err)
	}
	return keys, nil
}

func (p *Plugin) handleEntries(ctx context.Context, args json.RawMessage) (any, error) {
	in := storeArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	entries, err := p.db.entries(ctx, storeName(in.Store))
	if err != nil {
		return nil, fmt.Errorf("failed to list entries of store '%s': %w", storeName(in.Store), err)
	}
	return entries, nil
}

func (p *Plugin) handleLength(ctx context.Context, args json.RawMessage) (any, error) {
	in := storeArgs{}
	if err := registry.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	n, err := p.db.length(ctx, storeName(in.Store))
	if err != nil {
		return nil, fmt.Errorf("failed to count store '%s': %w", storeName(in.Store), err)
	}
	return n, nil
}

func (p *Plugin) handleSave(ctx context.Context, _ json.RawMessage) (any, error) {
	if err := p.db.checkpoint(ctx); err != nil {
		return nil, fmt.Errorf("failed to checkpoint store database: %w", err)
	}
	return nil, nil
}

// storeName applies the default collection for callers that omit one.
func storeName(name string) string {
	if name == "" {
		return defaultStore
	}
	return name
}
