package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeyUsername ctxKey = "username"
	CtxKeyRole     ctxKey = "role"
)

// PrincipalFromCtx returns the authenticated principal attached by
// AuthnMiddleware, if any.
func PrincipalFromCtx(ctx context.Context) (Principal, bool) {
	userID, ok := ctx.Value(CtxKeyUserID).(string)
	if !ok || userID == "" {
		return Principal{}, false
	}
	username, _ := ctx.Value(CtxKeyUsername).(string)
	role, _ := ctx.Value(CtxKeyRole).(string)
	return Principal{UserID: userID, Username: username, Role: role}, true
}

func roleFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyRole).(string); ok {
		return v
	}
	return ""
}
