package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/agentstation/promise/pkg/logging"
)

// ContextWithSignals creates a context that is cancelled when the application
// receives an interrupt or termination signal. In-flight registration stops
// at the next item and the snapshot is still saved.
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// withRunContext attaches the app logger and a fresh run id to ctx.
func (a *App) withRunContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.WithLogger(ctx, a.logger)
	return logging.WithRunID(ctx, uuid.NewString())
}
