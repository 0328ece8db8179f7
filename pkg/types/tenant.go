package types

import "context"

type tenantScopeKey struct{}

// InjectTenantScope binds the authenticated scope to ctx, done once by
// the transport middleware.
func InjectTenantScope(ctx context.Context, scope TenantScope) context.Context {
	return context.WithValue(ctx, tenantScopeKey{}, scope)
}

func GetTenantScope(ctx context.Context) (TenantScope, bool) {
	scope, ok := ctx.Value(tenantScopeKey{}).(TenantScope)
	return scope, ok
}

// TenantScope is the authenticated (tenant, user) pair supplied by the
// identity collaborator. Every store and logic operation takes one;
// nothing in the engine resolves tenancy on its own.
type TenantScope struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
}

func NewTenantScope(tenantID, userID string) TenantScope {
	return TenantScope{TenantID: tenantID, UserID: userID}
}

func (s TenantScope) Valid() bool {
	return s.TenantID != "" && s.UserID != ""
}
