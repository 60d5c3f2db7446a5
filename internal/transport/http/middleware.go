package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"certledger/internal/jwtident"
	id "certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/httputil"
)

type ctxKey struct{}

// CallerFrom extracts the authenticated caller identity from the request
// context. Second return is false on unauthenticated routes.
func CallerFrom(ctx context.Context) (id.Identity, bool) {
	caller, ok := ctx.Value(ctxKey{}).(id.Identity)
	return caller, ok
}

// withCaller is exposed for handler tests that bypass token issuance.
func withCaller(ctx context.Context, caller id.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, caller)
}

// RequireIdentity authenticates the caller via a bearer token and places the
// resulting identity in the request context. Role checks stay in the
// lifecycle service; transport only establishes who is calling.
func RequireIdentity(tokens *jwtident.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error":             string(dErrors.CodeUnauthorized),
					"error_description": "bearer token required",
				})
				return
			}

			caller, err := tokens.ValidateToken(raw)
			if err != nil {
				logger.WarnContext(r.Context(), "token validation failed", "error", err)
				httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error": string(dErrors.CodeUnauthorized),
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
		})
	}
}
