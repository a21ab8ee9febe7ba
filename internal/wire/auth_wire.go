package wire

import (
	"cargo-booking/internal/adaptor"
	"cargo-booking/pkg/middleware"
	"cargo-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	resolver middleware.IdentityResolver,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(resolver, config.Session.CookieName, log))

		r.Post("/api/logout", authHandler.Logout)
		r.Get("/api/user", authHandler.Me)
	})
}
