package adaptor

import (
	"cargo-booking/internal/usecase"
	"cargo-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	Booking *BookingHandler
}

func NewHandler(service *usecase.Service, config *utils.Config, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, config.Session, log),
		Booking: NewBookingHandler(service.Booking, log),
	}
}
