package v1

import (
	"context"

	"github.com/studyhall-ai/studyhall/pkg/types"
)

// TenantInfo carries the authenticated scope every logic call runs
// under. The transport middleware injects it into the request context,
// nothing below ever resolves tenancy on its own.
type TenantInfo struct {
	scope types.TenantScope
}

func SetupTenantInfo(ctx context.Context) TenantInfo {
	scope, _ := types.GetTenantScope(ctx)
	return TenantInfo{scope: scope}
}

func (u TenantInfo) GetScope() types.TenantScope {
	return u.scope
}

func (u TenantInfo) TenantID() string {
	return u.scope.TenantID
}

func (u TenantInfo) UserID() string {
	return u.scope.UserID
}
