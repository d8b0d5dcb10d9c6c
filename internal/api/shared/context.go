package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is the type of request-scoped values set by the api packages.
type ContextKey string

// Context keys for various values
const (
	// PersonContextKey is the context key for the authenticated Person.
	PersonContextKey ContextKey = "person"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of bytes used to generate the trace ID
	TraceIDLength = 16 // 32 hex characters
)

// Person is the authenticated caller. Only its EntityID is consulted by handlers.
type Person struct {
	EntityID string
}

// WithPerson stores the authenticated person in ctx.
func WithPerson(ctx context.Context, p Person) context.Context {
	return context.WithValue(ctx, PersonContextKey, p)
}

// PersonFromContext returns the authenticated person. The boolean is false
// when no person was set or its ID is blank.
func PersonFromContext(ctx context.Context) (Person, bool) {
	p, ok := ctx.Value(PersonContextKey).(Person)
	if !ok || strings.TrimSpace(p.EntityID) == "" {
		return Person{}, false
	}
	return p, true
}

// SetTraceID adds a fresh trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// generateTraceID returns 32 hex characters. If crypto/rand fails it falls
// back to a random UUID with the dashes removed.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if n, err := rand.Read(b); err != nil || n != TraceIDLength {
		slog.Error("failed to generate secure random trace ID",
			"error", err,
			"bytes_read", n,
			"fallback", "uuid")
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return hex.EncodeToString(b)
}
