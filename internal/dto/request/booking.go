package request

type CreateBookingRequest struct {
	VehicleType     string  `json:"vehicleType" validate:"required,oneof=van-3.5 truck-7.5 truck-18"`
	PickupLocation  string  `json:"pickupLocation" validate:"required"`
	DropoffLocation string  `json:"dropoffLocation" validate:"required"`
	PickupCoords    string  `json:"pickupCoords" validate:"required"`
	DropoffCoords   string  `json:"dropoffCoords" validate:"required"`
	EstimatedPrice  *string `json:"estimatedPrice,omitempty"`
	Distance        *string `json:"distance,omitempty"`
	Duration        *string `json:"duration,omitempty"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateBookingStatusRequest accepts any known status; whether the edge
// is legal is decided by the lifecycle engine, not here.
type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending accepted in_transit completed rejected cancelled"`
}
