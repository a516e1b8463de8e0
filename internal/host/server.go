package host

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hullshell/hull/internal/bridge"
)

// bootPayload is what the UI fetches from /hull/boot to discover its host.
// Serving it same-origin keeps the bridge token away from other pages.
type bootPayload struct {
	App struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"app"`
	Window struct {
		Title      string `json:"title"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		Fullscreen bool   `json:"fullscreen"`
	} `json:"window"`
	Bridge struct {
		Path  string `json:"path"`
		Token string `json:"token"`
	} `json:"bridge"`
}

// uiHandler assembles the UI mux: the bridge, the boot and health
// endpoints, and the application assets.
func (h *Host) uiHandler(br *bridge.Server) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/hull/bridge", br)
	mux.HandleFunc("/hull/boot", h.handleBoot)
	mux.HandleFunc("/hull/health", h.handleHealth)
	mux.Handle("/", h.assetsHandler())
	return mux
}

// handleHealth lets dev tooling poll for host readiness.
func (h *Host) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (h *Host) handleBoot(w http.ResponseWriter, r *http.Request) {
	var p bootPayload
	p.App.ID = h.mf.App.ID
	p.App.Name = h.mf.App.Name
	p.App.Version = h.mf.App.Version
	p.Window.Title = h.mf.App.Window.Title
	p.Window.Width = h.mf.App.Window.Width
	p.Window.Height = h.mf.App.Window.Height
	p.Window.Fullscreen = h.mf.App.Window.Fullscreen
	p.Bridge.Path = "/hull/bridge"
	p.Bridge.Token = h.token

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(p)
}

func (h *Host) assetsHandler() http.Handler {
	dir := h.mf.AssetsDir()
	if dir == "" {
		return http.HandlerFunc(h.handlePlaceholder)
	}
	index := h.mf.Assets.Index
	spa := h.mf.Assets.SPA
	fs := http.FileServer(http.Dir(dir))
	if !spa {
		return fs
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unresolvable paths fall back to the SPA index so client-side
		// routes survive a reload.
		p := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, index))
	})
}

const placeholderPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: sans-serif">
<h1>%s</h1>
<p>This application has no asset bundle configured. Point the manifest's
<code>assets</code> block at your built frontend, or set a dev URL.</p>
</body>
</html>
`

func (h *Host) handlePlaceholder(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, placeholderPage, h.mf.App.Name, h.mf.App.Name)
}
