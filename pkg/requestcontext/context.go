// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; flows read them. Keeping this package free of
// net/http lets services import it without pulling in transport code.
//
// Usage in services (read values):
//
//	clientID := requestcontext.ClientID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithClientID(ctx, "TheRegistrar")
package requestcontext

import (
	"context"
	"time"

	id "domainreg/pkg/domain"
)

type (
	clientIDKey    struct{}
	superuserKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyClientID    = clientIDKey{}
	ContextKeySuperuser   = superuserKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Registrar identity
// -----------------------------------------------------------------------------

// ClientID retrieves the logged-in registrar. Returns "" if not set.
func ClientID(ctx context.Context) id.ClientID {
	if clientID, ok := ctx.Value(ContextKeyClientID).(id.ClientID); ok {
		return clientID
	}
	return ""
}

// WithClientID injects the logged-in registrar into the context.
func WithClientID(ctx context.Context, clientID id.ClientID) context.Context {
	return context.WithValue(ctx, ContextKeyClientID, clientID)
}

// IsSuperuser reports whether the caller acts with registry-operator privileges.
func IsSuperuser(ctx context.Context) bool {
	su, _ := ctx.Value(ContextKeySuperuser).(bool)
	return su
}

// WithSuperuser marks the caller as a registry operator.
func WithSuperuser(ctx context.Context, superuser bool) context.Context {
	return context.WithValue(ctx, ContextKeySuperuser, superuser)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now().UTC()
}

// WithTime injects a specific time into a context.
// Useful for:
//   - Service unit tests that run a flow at a fixed instant
//   - Workers that need consistent time within a batch operation
//   - CLI commands
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t.UTC())
}
