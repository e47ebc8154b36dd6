package middleware

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// WithIdentity injects the authenticated caller into the context.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}

func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	if ctx == nil {
		return auth.Identity{}, false
	}
	identity, ok := ctx.Value(ctxIdentity).(auth.Identity)
	return identity, ok
}

func UserIDFromContext(ctx context.Context) string {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity.UserID.String()
	}
	return ""
}
