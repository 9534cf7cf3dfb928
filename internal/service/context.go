package service

import "context"

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller extracted from the access token.
type Identity struct {
	UserID   int64
	Username string
	Role     string
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns nil for unauthenticated requests.
func IdentityFrom(ctx context.Context) *Identity {
	val, ok := ctx.Value(identityKey).(*Identity)
	if !ok {
		return nil
	}
	return val
}
