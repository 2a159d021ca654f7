package service

import (
	"context"

	"core_innovators/internal/models"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the authenticated caller.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller stored by WithIdentity.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}

// identityMeta adds the caller, if any, to event metadata.
func identityMeta(ctx context.Context, meta map[string]any) map[string]any {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return meta
	}
	if meta == nil {
		meta = make(map[string]any, 2)
	}
	meta["user_id"] = id.UserID
	meta["username"] = id.Username
	return meta
}
