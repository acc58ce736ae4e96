package middleware

import (
	"context"

	"task-tracker/models"
)

type ctxKey string

const (
	actorContextKey     ctxKey = "tasks.auth.actor"
	requestIDContextKey ctxKey = "tasks.request_id"
)

func WithActor(ctx context.Context, a models.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, a)
}

// ActorFromContext returns the actor set by JWTAuthMiddleware.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	a, ok := ctx.Value(actorContextKey).(models.Actor)
	return a, ok
}

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDContextKey).(string)
	return v
}
