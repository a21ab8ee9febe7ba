package wire

import (
	"cargo-booking/internal/adaptor"
	"cargo-booking/pkg/middleware"
	"cargo-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	resolver middleware.IdentityResolver,
	config *utils.Config,
	log *zap.Logger,
) {
	// every booking route is scoped to the caller
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(middleware.AuthSession(resolver, config.Session.CookieName, log))

		r.Post("/", bookingHandler.CreateBooking)
		r.Get("/", bookingHandler.GetUserBookings)
		r.Get("/{id}", bookingHandler.GetBooking)
		r.Patch("/{id}/status", bookingHandler.UpdateStatus)
	})
}
