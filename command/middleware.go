package command

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Middleware wraps an Action to add cross-cutting behavior. Middleware runs
// in the order given: the first one is outermost.
type Middleware func(next Action) Action

// Chain wraps a with mws.
func Chain(a Action, mws ...Middleware) Action {
	for i := len(mws) - 1; i >= 0; i-- {
		a = mws[i](a)
	}
	return a
}

// PanicError is returned by an Action whose body panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("command panicked: %v", e.Value)
}

// RecoverMiddleware turns a panic in the wrapped Action into a *PanicError
// instead of crashing the host.
func RecoverMiddleware() Middleware {
	return func(next Action) Action {
		return func(ctx context.Context, inv *Invocation) (reply *Reply, err error) {
			defer func() {
				if r := recover(); r != nil {
					reply = nil
					err = &PanicError{Value: r, Stack: debug.Stack()}
				}
			}()
			return next(ctx, inv)
		}
	}
}

// LoggingMiddleware logs every invocation of the command named name.
func LoggingMiddleware(logger *slog.Logger, name string) Middleware {
	return func(next Action) Action {
		return func(ctx context.Context, inv *Invocation) (*Reply, error) {
			start := time.Now()
			reply, err := next(ctx, inv)
			if err != nil {
				logger.WarnContext(ctx, "command failed", "command", name, "duration", time.Since(start), "error", err)
				return nil, err
			}
			logger.DebugContext(ctx, "command completed", "command", name, "duration", time.Since(start))
			return reply, nil
		}
	}
}
