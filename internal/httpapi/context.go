package httpapi

import (
	"context"
)

// baseCtx is the process lifetime context. Long-running handlers (device
// refresh, benchmarks, WebSocket streams) derive from it so shutdown
// reaches them even when the client keeps its request open.
var baseCtx = context.Background()

// SetBaseContext installs the process lifetime context. A nil ctx
// restores Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		baseCtx = context.Background()
		return
	}
	baseCtx = ctx
}

// linkedContext derives a context from the request context that also
// ends with the process lifetime context. The cancel func must always
// be called.
func linkedContext(reqCtx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(reqCtx)
	stop := context.AfterFunc(baseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
