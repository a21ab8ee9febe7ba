package response

import (
	"time"

	"cargo-booking/internal/data/entity"
)

// BookingResponse is the booking shape on both the HTTP API and the
// push channel.
type BookingResponse struct {
	ID              int64                `json:"id"`
	UserID          string               `json:"userId"`
	VehicleType     entity.VehicleType   `json:"vehicleType"`
	PickupLocation  string               `json:"pickupLocation"`
	DropoffLocation string               `json:"dropoffLocation"`
	PickupCoords    string               `json:"pickupCoords"`
	DropoffCoords   string               `json:"dropoffCoords"`
	Status          entity.BookingStatus `json:"status"`
	EstimatedPrice  *string              `json:"estimatedPrice"`
	ActualPrice     *string              `json:"actualPrice"`
	Distance        *string              `json:"distance"`
	Duration        *string              `json:"duration"`
	Notes           *string              `json:"notes"`
	UpdatedAt       time.Time            `json:"updatedAt"`
	CreatedAt       time.Time            `json:"createdAt"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		UserID:          b.UserID.String(),
		VehicleType:     b.VehicleType,
		PickupLocation:  b.PickupLocation,
		DropoffLocation: b.DropoffLocation,
		PickupCoords:    b.PickupCoords,
		DropoffCoords:   b.DropoffCoords,
		Status:          b.Status,
		EstimatedPrice:  b.EstimatedPrice,
		ActualPrice:     b.ActualPrice,
		Distance:        b.Distance,
		Duration:        b.Duration,
		Notes:           b.Notes,
		UpdatedAt:       b.UpdatedAt,
		CreatedAt:       b.CreatedAt,
	}
}

func BookingsToResponse(bookings []*entity.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = BookingToResponse(b)
	}
	return out
}
