package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cargo-booking/internal/data/entity"
	"cargo-booking/internal/data/repository"
	"cargo-booking/internal/dto/request"
	"cargo-booking/internal/dto/response"
	"cargo-booking/internal/lifecycle"
	"cargo-booking/pkg/utils"

	"go.uber.org/zap"
)

// StatusNotifier pushes a committed transition to live connections.
type StatusNotifier interface {
	NotifyStatusChanged(ctx context.Context, booking *entity.Booking) error
}

// EventPublisher hands domain events to an external broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value any) error
}

// StatusChangeRecord is what leaves the service on the event stream for
// every committed transition.
type StatusChangeRecord struct {
	BookingID int64                `json:"bookingId"`
	UserID    string               `json:"userId"`
	From      entity.BookingStatus `json:"from"`
	To        entity.BookingStatus `json:"to"`
	At        time.Time            `json:"at"`
}

type BookingService interface {
	CreateBooking(ctx context.Context, identity entity.Identity, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, identity entity.Identity) ([]response.BookingResponse, error)
	GetBooking(ctx context.Context, identity entity.Identity, bookingID int64) (*response.BookingResponse, error)
	UpdateStatus(ctx context.Context, identity entity.Identity, bookingID int64, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	engine    *lifecycle.Engine
	locks     *lifecycle.KeyedMutex
	notifier  StatusNotifier
	publisher EventPublisher
	now       func() time.Time
	log       *zap.Logger
}

func NewBookingService(
	repo repository.BookingRepository,
	engine *lifecycle.Engine,
	notifier StatusNotifier,
	publisher EventPublisher,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:      repo,
		engine:    engine,
		locks:     lifecycle.NewKeyedMutex(),
		notifier:  notifier,
		publisher: publisher,
		now:       time.Now,
		log:       log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, identity entity.Identity, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}

	details := entity.BookingDetails{
		VehicleType:     entity.VehicleType(req.VehicleType),
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		PickupCoords:    req.PickupCoords,
		DropoffCoords:   req.DropoffCoords,
		EstimatedPrice:  req.EstimatedPrice,
		Distance:        req.Distance,
		Duration:        req.Duration,
		Notes:           req.Notes,
	}

	booking, err := s.repo.Create(ctx, identity.UserID, details, s.now())
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.String("user_id", identity.UserID.String()),
		zap.String("vehicle_type", string(booking.VehicleType)),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, identity entity.Identity) ([]response.BookingResponse, error) {
	bookings, err := s.repo.FindByUserID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	return response.BookingsToResponse(bookings), nil
}

func (s *bookingService) GetBooking(ctx context.Context, identity entity.Identity, bookingID int64) (*response.BookingResponse, error) {
	booking, err := s.findOwned(ctx, identity, bookingID)
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// UpdateStatus applies one lifecycle transition. Attempts on the same
// booking are serialized in-process; CommitTransition catches writers in
// other processes. The broadcast and the event record go out only after
// the commit, and their failures never undo it.
func (s *bookingService) UpdateStatus(ctx context.Context, identity entity.Identity, bookingID int64, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update status validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}
	to := entity.BookingStatus(req.Status)

	unlock := s.locks.Lock(bookingID)
	defer unlock()

	current, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}

	next, err := s.engine.Attempt(current, to, identity)
	if err != nil {
		s.log.Info("Status transition refused",
			zap.Int64("booking_id", bookingID),
			zap.String("user_id", identity.UserID.String()),
			zap.String("to", string(to)),
			zap.Error(err),
		)
		return nil, err
	}

	updated, err := s.repo.CommitTransition(ctx, bookingID, current.Status, next.Status, next.UpdatedAt)
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking status changed",
		zap.Int64("booking_id", bookingID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
	)

	s.announce(context.WithoutCancel(ctx), current.Status, updated)

	resp := response.BookingToResponse(updated)
	return &resp, nil
}

func (s *bookingService) announce(ctx context.Context, from entity.BookingStatus, booking *entity.Booking) {
	if s.notifier != nil {
		if err := s.notifier.NotifyStatusChanged(ctx, booking); err != nil {
			s.log.Warn("Status broadcast failed",
				zap.Int64("booking_id", booking.ID),
				zap.Error(err),
			)
		}
	}

	if s.publisher != nil {
		record := StatusChangeRecord{
			BookingID: booking.ID,
			UserID:    booking.UserID.String(),
			From:      from,
			To:        booking.Status,
			At:        booking.UpdatedAt,
		}
		if err := s.publisher.Publish(ctx, strconv.FormatInt(booking.ID, 10), record); err != nil {
			s.log.Warn("Status event publish failed",
				zap.Int64("booking_id", booking.ID),
				zap.Error(err),
			)
		}
	}
}

// findOwned hides other users' bookings behind ErrBookingNotFound.
func (s *bookingService) findOwned(ctx context.Context, identity entity.Identity, bookingID int64) (*entity.Booking, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	if booking == nil || booking.UserID != identity.UserID {
		return nil, fmt.Errorf("booking %d: %w", bookingID, entity.ErrBookingNotFound)
	}
	return booking, nil
}
