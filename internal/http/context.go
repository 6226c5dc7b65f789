package http

import (
	"context"

	"github.com/example/homedash/internal/application"
)

type contextKey string

const (
	principalContextKey     contextKey = "principal"
	boardIDContextKey       contextKey = "board_id"
	integrationIDContextKey contextKey = "integration_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithBoardID injects the board identifier resolved from the request path.
func ContextWithBoardID(ctx context.Context, boardID string) context.Context {
	return context.WithValue(ctx, boardIDContextKey, boardID)
}

// BoardIDFromContext extracts a board identifier previously associated with the context.
func BoardIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(boardIDContextKey).(string)
	return id, ok
}

// ContextWithIntegrationID injects the integration identifier resolved from the request path.
func ContextWithIntegrationID(ctx context.Context, integrationID string) context.Context {
	return context.WithValue(ctx, integrationIDContextKey, integrationID)
}

// IntegrationIDFromContext extracts an integration identifier previously associated with the context.
func IntegrationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(integrationIDContextKey).(string)
	return id, ok
}
