package server

import (
	"context"

	"github.com/talentwire/talentwire/internal/session"
	"github.com/talentwire/talentwire/internal/tenantpool"
)

type contextKey string

const (
	claimsContextKey   contextKey = "claims"
	tenantDBContextKey contextKey = "tenant_db"
)

// ClaimsFromContext returns the verified session claims stored by the session
// middleware. Only verified claims ever reach the context.
func ClaimsFromContext(ctx context.Context) (*session.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*session.Claims)
	return claims, ok
}

// TenantDBFromContext returns the resolved tenant pool for the request.
func TenantDBFromContext(ctx context.Context) (tenantpool.DB, bool) {
	db, ok := ctx.Value(tenantDBContextKey).(tenantpool.DB)
	return db, ok
}

func withSession(ctx context.Context, claims *session.Claims, db tenantpool.DB) context.Context {
	ctx = context.WithValue(ctx, claimsContextKey, claims)
	return context.WithValue(ctx, tenantDBContextKey, db)
}
