package interceptors

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"contract-rbac/internal/apperr"
	"contract-rbac/internal/platform/httpapi"
)

const (
	bearerPrefix = "bearer "
	apiKeyHeader = "X-Api-Key"
)

// CallerResolver turns an access token into the caller's account id.
// Implemented by *identity/service.AuthService.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, token string) (string, error)
}

// Authenticate returns HTTP middleware that resolves the caller from an
// "Authorization: Bearer" or "X-Api-Key" header and stores the account id in the
// request context. Requests without a valid token are rejected with 401.
func Authenticate(resolver CallerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromHeader(r.Header)
			accountID, err := resolver.ResolveCaller(r.Context(), token)
			if err != nil {
				if apperr.KindOf(err) != apperr.Unauthenticated {
					zerolog.Ctx(r.Context()).Error().Err(err).Msg("resolve caller")
				}
				httpapi.WriteError(w, r, err)
				return
			}
			ctx := WithIdentity(r.Context(), accountID)
			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("caller_id", accountID)
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromHeader returns the bearer token from Authorization, falling back to
// X-Api-Key. Returns "" when neither carries a token.
func TokenFromHeader(h http.Header) string {
	if t := parseBearer(h.Get("Authorization")); t != "" {
		return t
	}
	return strings.TrimSpace(h.Get(apiKeyHeader))
}

// parseBearer returns the token from a "Bearer <token>" value, or "" if missing or malformed.
func parseBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
