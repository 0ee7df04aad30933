package authz

import "context"

type actorContextKey struct{}

type breadthContextKey struct{}

// ContextWithActor stores the resolved actor in the request context.
func ContextWithActor(ctx context.Context, actor AuthContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor. ok is false for unauthenticated
// requests; engine calls must then fail closed.
func ActorFromContext(ctx context.Context) (AuthContext, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(AuthContext)
	return actor, ok
}

// ContextWithBreadth records the breadth the gate middleware resolved, so
// handlers do not repeat the page-level check.
func ContextWithBreadth(ctx context.Context, b Breadth) context.Context {
	return context.WithValue(ctx, breadthContextKey{}, b)
}

// BreadthFromContext returns the breadth stored by the gate middleware.
func BreadthFromContext(ctx context.Context) (Breadth, bool) {
	b, ok := ctx.Value(breadthContextKey{}).(Breadth)
	return b, ok
}
