package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/shop_backend/appctx"
)

// Role values carried in JWT claims and request contexts.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

var (
	ContextKeyToken         = appctx.ContextKeyToken
	ContextKeyUserId        = appctx.ContextKeyUserId
	ContextKeyUserRole      = appctx.ContextKeyUserRole
	ContextKeyUsername      = appctx.ContextKeyUsername
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyUserId)
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserRole)
}

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUsername)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func SetUserRoleInContext(ctx context.Context, role string) context.Context {
	return appctx.Set(ctx, ContextKeyUserRole, role)
}

func SetUsernameInContext(ctx context.Context, username string) context.Context {
	return appctx.Set(ctx, ContextKeyUsername, username)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

// RequireAdmin ensures the context carries an admin principal.
func RequireAdmin(ctx context.Context) (int, error) {
	id, ok := GetUserIdFromContext(ctx)
	role, okRole := GetUserRoleFromContext(ctx)
	if !ok || !okRole || role != RoleAdmin {
		return 0, &AuthorizationError{Message: "admin access required"}
	}
	return id, nil
}

// RequireClient ensures the context carries a client principal.
func RequireClient(ctx context.Context) (int, error) {
	id, ok := GetUserIdFromContext(ctx)
	role, okRole := GetUserRoleFromContext(ctx)
	if !ok || !okRole || role != RoleClient {
		return 0, &AuthorizationError{Message: "client access required"}
	}
	return id, nil
}
