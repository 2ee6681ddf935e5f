package httpx

import (
	"context"
	"net/http"
	"strings"
)

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares to a handler in declaration order: the first
// middleware in the list is the outermost wrapper.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Principal identifies the authenticated caller of a request.
type Principal struct {
	UserID   string
	Username string
	Role     string
}

// SessionValidator checks a bearer token and returns the principal it
// belongs to. Validity is re-checked against the backing store on every
// call, never cached here.
type SessionValidator func(ctx context.Context, token string) (Principal, bool)

// BearerToken extracts the token from an Authorization: Bearer header.
// Returns "" when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// AuthnMiddleware rejects requests without a valid session token and
// attaches the caller's principal to the request context.
func AuthnMiddleware(validate SessionValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeBearerError(w, http.StatusUnauthorized, "invalid_token")
				return
			}

			principal, ok := validate(r.Context(), token)
			if !ok {
				writeBearerError(w, http.StatusUnauthorized, "invalid_token")
				return
			}

			ctx := context.WithValue(r.Context(), CtxKeyUserID, principal.UserID)
			ctx = context.WithValue(ctx, CtxKeyUsername, principal.Username)
			ctx = context.WithValue(ctx, CtxKeyRole, principal.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole the caller must hold one of the listed roles.
func RequireRole(roles ...string) Middleware {
	want := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		want[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := want[roleFromCtx(r.Context())]; !ok {
				writeBearerError(w, http.StatusForbidden, "insufficient_role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750-style bearer error response.
func writeBearerError(w http.ResponseWriter, code int, reason string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="`+reason+`"`)
	WriteError(w, code, reason, "")
}
