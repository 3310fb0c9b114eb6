package auth

import "context"

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

// Identity 已认证请求的调用者
type Identity struct {
	UserID   string
	Username string
	Email    string
	Token    string
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
