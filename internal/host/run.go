package host

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hullshell/hull/internal/bridge"
	"github.com/hullshell/hull/internal/ctxlog"
	"github.com/hullshell/hull/internal/event"
)

// Run starts the host and blocks until shutdown. Every startup failure is
// returned; once the loop is dispatching, problems are handled in place and
// a clean shutdown returns nil.
func (b *Builder) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if b.attachErr != nil {
		return fmt.Errorf("plugin attachment: %w", b.attachErr)
	}

	token := uuid.NewString()
	h := newHost(b.mf, b.rt, token, b.args)
	if err := h.resolveDataDir(); err != nil {
		return err
	}

	var guard InstanceGuard
	if b.rt.SingleInstance {
		guard = b.guard
		if guard == nil {
			guard = newInstanceGuard(b.mf.App.ID, h.dataDir)
		}
		primary, err := guard.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("single-instance guard: %w", err)
		}
		if !primary {
			// Hand our launch URLs to the running instance and bow out. A
			// primary that died in between is not worth failing over; the
			// user relaunches and becomes the primary.
			logger.Info("Another instance is already running, forwarding launch request.")
			if err := guard.Forward(ctx, h.LaunchURLs()); err != nil {
				logger.Warn("Could not reach the primary instance.", "error", err)
			}
			return nil
		}
		defer guard.Close()
	}

	ln, err := net.Listen("tcp", b.rt.Listen)
	if err != nil {
		return fmt.Errorf("bind ui listener on %s: %w", b.rt.Listen, err)
	}
	h.uiAddr = "http://" + ln.Addr().String()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	br := bridge.New(runCtx, token, b.reg)

	srv := &http.Server{Handler: h.uiHandler(br)}

	if err := b.reg.Setup(runCtx, h); err != nil {
		b.teardown(runCtx, srv, br)
		ln.Close()
		return err
	}
	for _, hook := range b.hooks {
		if err := hook(runCtx, h); err != nil {
			b.teardown(runCtx, srv, br)
			ln.Close()
			return fmt.Errorf("setup hook: %w", err)
		}
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("UI server failed unexpectedly.", "error", err)
		}
	}()
	logger.Info("🚀 UI server listening.", "addr", h.uiAddr, "app", b.mf.App.ID)

	driver := b.driver
	if driver == nil {
		driver = defaultWindowDriver(b.runner)
	}
	if !b.rt.NoOpen {
		openURL := h.uiAddr
		if b.rt.DevURL != "" {
			openURL = b.rt.DevURL
		}
		if err := driver.Open(runCtx, openURL, b.mf.App.Window); err != nil {
			b.teardown(runCtx, srv, br)
			return fmt.Errorf("present application window: %w", err)
		}
	}

	return b.loop(runCtx, h, br, guard, driver, srv)
}

// loop dispatches events until an exit condition, then tears the host down.
func (b *Builder) loop(ctx context.Context, h *Host, br *bridge.Server, guard InstanceGuard, driver WindowDriver, srv *http.Server) error {
	logger := ctxlog.FromContext(ctx)

	// Relaunches forwarded by secondary instances surface as deep-link
	// events on the loop.
	if guard != nil {
		go func() {
			for {
				select {
				case urls := <-guard.Notifications():
					select {
					case h.events <- event.DeepLink{URLs: urls}:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Ready goes out first, ahead of anything plugins queued during setup,
	// then the launch URLs the process was started with.
	b.reg.Deliver(ctx, event.Ready{})
	if urls := h.LaunchURLs(); len(urls) > 0 {
		b.reg.Deliver(ctx, event.DeepLink{URLs: urls})
	}

	logger.Debug("Run loop dispatching.")
	for {
		select {
		case <-ctx.Done():
			logger.Info("Run loop stopping: context canceled.")
			return b.teardown(ctx, srv, br)

		case <-driver.Done():
			logger.Info("Run loop stopping: window closed.")
			b.reg.Deliver(ctx, event.WindowClosed{})
			return b.teardown(ctx, srv, br)

		case ev := <-h.events:
			b.reg.Deliver(ctx, ev)
			switch e := ev.(type) {
			case event.Custom:
				// Named events are the UI-visible surface; lifecycle events
				// stay host-side.
				if err := br.Broadcast(e.Name, e.Payload); err != nil {
					logger.Warn("Event broadcast failed.", "event", e.Name, "error", err)
				}
			case event.ExitRequested:
				logger.Info("Run loop stopping: exit requested.", "code", e.Code)
				return b.teardown(ctx, srv, br)
			}
		}
	}
}

// teardown closes the bridge, the plugins, and the UI server. Shutdown
// problems are logged rather than returned: the run itself ended cleanly.
func (b *Builder) teardown(ctx context.Context, srv *http.Server, br *bridge.Server) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Host teardown starting.")

	br.Close()
	if err := b.reg.Close(); err != nil {
		logger.Warn("Plugin shutdown reported errors.", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("UI server shutdown failed.", "error", err)
	}

	logger.Info("🏁 Host stopped.")
	return nil
}
