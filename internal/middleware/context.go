package middleware

import "context"

type contextKey struct{}

// ContextWithRequest attaches reqCtx to ctx so it survives the call
// chain from the tool-call surface down to the Router without widening
// every intermediate signature.
func ContextWithRequest(ctx context.Context, reqCtx RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, reqCtx)
}

// FromContext recovers the RequestContext attached by ContextWithRequest,
// returning the zero value (dev-mode-equivalent, unauthenticated) if none
// was attached.
func FromContext(ctx context.Context) RequestContext {
	if v, ok := ctx.Value(contextKey{}).(RequestContext); ok {
		return v
	}
	return RequestContext{}
}
