package auth

import "context"

// ContextWithPrincipal adds a principal to the context. Exported so other
// packages can build authenticated test requests.
func ContextWithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}
