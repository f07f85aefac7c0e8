// Package requestcontext provides context accessors for request-scoped
// values. Interaction handlers stamp the context once at the edge; services
// read from it so a whole interaction observes a single "now" and tests can
// inject fixed timestamps without faking clocks.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestTimeKey struct{}
	requestIDKey   struct{}
)

// Now retrieves the request-scoped time, falling back to the wall clock when
// the context was never stamped.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Handlers call this at the
// start of an interaction; tests call it to pin the clock.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// RequestID retrieves the interaction/request correlation ID, if any.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}
