package app

import (
	"context"
	"fmt"

	"github.com/hullshell/hull/internal/ctxlog"
)

// Run hands control to the host's blocking run loop. It returns once the
// application has shut down cleanly. A loop that cannot start, or fails
// while running, panics; entrypoints recover the panic into an exit code.
func (a *App) Run(ctx context.Context) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.builder.Run(ctx); err != nil {
		panic(fmt.Errorf("error while running hull application: %w", err))
	}

	a.logger.Debug("App.Run method finished.")
}
