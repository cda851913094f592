package user

import "context"

type ctxKey string

const identityKey ctxKey = "identity"

// NewContext stores the authenticated identity (set by the auth middleware).
func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext retrieves the authenticated identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
