package cli

import (
	"context"
	"time"
)

// pingTimeout bounds a single liveness probe.
const pingTimeout = 3 * time.Second

// StartOnlineStatusWatcher pings the server every interval and switches the
// app between online and offline mode. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.authService.Ping(pingCtx)
	cancel()

	if err != nil {
		if a.Mode() != ModeOffline {
			a.log.Warn(ctx, "server unreachable", "error", err)
		}
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}
