package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cargo-booking/internal/data/entity"
	"cargo-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BookingRepository is the persistence boundary for bookings. Status is
// only ever written by Create (always pending) and CommitTransition.
type BookingRepository interface {
	Create(ctx context.Context, userID uuid.UUID, details entity.BookingDetails, at time.Time) (*entity.Booking, error)
	FindByID(ctx context.Context, id int64) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Booking, error)
	// CommitTransition moves the booking from one status to another only
	// if it is still in from; otherwise it returns ErrConcurrentUpdate.
	CommitTransition(ctx context.Context, id int64, from, to entity.BookingStatus, at time.Time) (*entity.Booking, error)
}

const bookingColumns = `id, user_id, status, vehicle_type, pickup_location, dropoff_location,
		       pickup_coords, dropoff_coords, estimated_price, actual_price, distance,
		       duration, notes, created_at, updated_at`

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func (r *bookingRepository) Create(ctx context.Context, userID uuid.UUID, details entity.BookingDetails, at time.Time) (*entity.Booking, error) {
	query := `
		INSERT INTO bookings (user_id, status, vehicle_type, pickup_location, dropoff_location,
		                      pickup_coords, dropoff_coords, estimated_price, actual_price,
		                      distance, duration, notes, created_at, updated_at)
		VALUES ($1, 'pending', $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.db.QueryRow(ctx, query,
		userID,
		details.VehicleType,
		details.PickupLocation,
		details.DropoffLocation,
		details.PickupCoords,
		details.DropoffCoords,
		details.EstimatedPrice,
		details.ActualPrice,
		details.Distance,
		details.Duration,
		details.Notes,
		at,
	))
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("create booking for user %s: %w", userID, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id int64) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.Int64("booking_id", id),
		)
		return nil, fmt.Errorf("find booking by ID %d: %w", id, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY id DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID, err)
	}
	defer rows.Close()

	bookings := []*entity.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings for user %s: %w", userID, err)
	}

	return bookings, nil
}

func (r *bookingRepository) CommitTransition(ctx context.Context, id int64, from, to entity.BookingStatus, at time.Time) (*entity.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id, from, to, at))
	if errors.Is(err, pgx.ErrNoRows) {
		r.log.Warn("Booking moved before transition commit",
			zap.Int64("booking_id", id),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return nil, fmt.Errorf("booking %d no longer %s: %w", id, from, entity.ErrConcurrentUpdate)
	}
	if err != nil {
		r.log.Error("Failed to commit booking transition",
			zap.Error(err),
			zap.Int64("booking_id", id),
			zap.String("to", string(to)),
		)
		return nil, fmt.Errorf("update booking %d status to %s: %w", id, to, err)
	}

	return booking, nil
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.Status,
		&b.VehicleType,
		&b.PickupLocation,
		&b.DropoffLocation,
		&b.PickupCoords,
		&b.DropoffCoords,
		&b.EstimatedPrice,
		&b.ActualPrice,
		&b.Distance,
		&b.Duration,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
