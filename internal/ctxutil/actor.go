// Package ctxutil carries the acting user through a context.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// ActorKey is the context key for actor ID.
type ActorKey struct{}

// WithActorID returns a context with the actor ID embedded.
// An empty ID leaves the context anonymous.
func WithActorID(ctx context.Context, actorID string) context.Context {
	if actorID == "" {
		return ctx
	}
	return context.WithValue(ctx, ActorKey{}, actorID)
}

// Actor returns the actor ID from context and whether one was set.
func Actor(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ActorKey{}).(string)
	return v, ok && v != ""
}

// ActorFromContext returns the actor ID from context, or empty string if not set.
func ActorFromContext(ctx context.Context) string {
	v, _ := Actor(ctx)
	return v
}
