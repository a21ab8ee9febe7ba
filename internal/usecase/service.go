package usecase

import (
	"cargo-booking/internal/data/repository"
	"cargo-booking/internal/lifecycle"
	"cargo-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth    AuthService
	Booking BookingService
}

// NewService builds every service. publisher may be nil when no broker
// is configured.
func NewService(
	repo *repository.Repository,
	config *utils.Config,
	notifier StatusNotifier,
	publisher EventPublisher,
	log *zap.Logger,
) *Service {
	engine := lifecycle.NewEngine(lifecycle.WithPolicy(lifecycle.PolicyByName(config.App.RolePolicy)))

	return &Service{
		Auth:    NewAuthService(repo, config, log),
		Booking: NewBookingService(repo.Booking, engine, notifier, publisher, log),
	}
}
