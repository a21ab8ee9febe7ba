package middleware

import (
	"context"
	"errors"
	"net/http"

	"cargo-booking/internal/data/entity"
	"cargo-booking/pkg/utils"

	"go.uber.org/zap"
)

type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*entity.Identity, error)
}

// AuthSession resolves the session token from the Authorization header or
// the session cookie and puts the caller's identity on the context.
func AuthSession(resolver IdentityResolver, cookieName string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := utils.TokenFromRequest(r, cookieName)
			if token == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			identity, err := resolver.ResolveIdentity(r.Context(), token)
			if errors.Is(err, entity.ErrUnauthenticated) {
				logger.Warn("Invalid or expired session", zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid or expired session")
				return
			}
			if err != nil {
				logger.Error("Failed to validate session", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			ctx := utils.SetIdentityContext(r.Context(), *identity)
			ctx = utils.SetTokenContext(ctx, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
