package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"propmarket/internal/identity"
	"propmarket/internal/jwttoken"
	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/platform/httputil"
	"propmarket/pkg/requestcontext"
)

// Authenticator resolves a bearer token to a live identity. The identity
// service implements it: signature check, revocation check, then a store
// lookup so the persisted role wins over whatever the token says.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identity.Identity, *jwttoken.Claims, error)
}

type claimsKey struct{}

// Claims returns the validated token claims placed by RequireAuth.
func Claims(ctx context.Context) *jwttoken.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*jwttoken.Claims)
	return claims
}

// RequireAuth rejects requests without a valid bearer token and records the
// acting account on the context.
func RequireAuth(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(r.Context(), "unauthorized: missing bearer token",
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or malformed Authorization header"))
				return
			}

			ident, claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized: token rejected",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, err)
				return
			}

			ctx := requestcontext.WithActor(r.Context(), domain.Actor{ID: ident.ID, Role: ident.Role})
			ctx = context.WithValue(ctx, claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows only the given role or an admin past this point. It
// must sit inside RequireAuth.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := requestcontext.Actor(r.Context())
			if actor.Role == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}
			if actor.Role != domain.RoleAdmin && actor.Role != role {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
