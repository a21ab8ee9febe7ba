package entity

import (
	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusInTransit BookingStatus = "in_transit"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BookingStatuses lists every status in declaration order.
var BookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusAccepted,
	BookingStatusInTransit,
	BookingStatusCompleted,
	BookingStatusRejected,
	BookingStatusCancelled,
}

func (s BookingStatus) Valid() bool {
	for _, known := range BookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}

type VehicleType string

const (
	VehicleVan35    VehicleType = "van-3.5"
	VehicleTruck75  VehicleType = "truck-7.5"
	VehicleTruck18W VehicleType = "truck-18"
)

// BookingDetails is the descriptive part of a booking. The lifecycle
// never reads it.
type BookingDetails struct {
	VehicleType     VehicleType `db:"vehicle_type"`
	PickupLocation  string      `db:"pickup_location"`
	DropoffLocation string      `db:"dropoff_location"`
	PickupCoords    string      `db:"pickup_coords"`
	DropoffCoords   string      `db:"dropoff_coords"`
	EstimatedPrice  *string     `db:"estimated_price"`
	ActualPrice     *string     `db:"actual_price"`
	Distance        *string     `db:"distance"`
	Duration        *string     `db:"duration"`
	Notes           *string     `db:"notes"`
}

type Booking struct {
	BaseSerial
	UserID uuid.UUID     `db:"user_id"`
	Status BookingStatus `db:"status"`
	BookingDetails
}
