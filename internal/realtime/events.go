// Package realtime is the server half of the push channel: the registry
// of live connections, the broadcast dispatcher and the websocket
// endpoint that feeds them.
package realtime

import (
	"cargo-booking/internal/data/entity"
	"cargo-booking/internal/dto/response"
)

type EventType string

const (
	EventConnected            EventType = "CONNECTED"
	EventBookingStatusUpdated EventType = "BOOKING_STATUS_UPDATED"
	EventLocationUpdate       EventType = "LOCATION_UPDATE"
)

type EventUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Event is one server → client message. Exactly one payload field is
// set, depending on Type.
type Event struct {
	Type    EventType                 `json:"type"`
	Message string                    `json:"message,omitempty"`
	User    *EventUser                `json:"user,omitempty"`
	Booking *response.BookingResponse `json:"booking,omitempty"`
	Data    *Location                 `json:"data,omitempty"`
}

func ConnectedEvent(identity entity.Identity) Event {
	return Event{
		Type:    EventConnected,
		Message: "Connected to tracking server",
		User:    &EventUser{ID: identity.UserID.String(), Username: identity.Username},
	}
}

func StatusChangedEvent(booking *entity.Booking) Event {
	b := response.BookingToResponse(booking)
	return Event{Type: EventBookingStatusUpdated, Booking: &b}
}

func LocationEvent(loc Location) Event {
	return Event{Type: EventLocationUpdate, Data: &loc}
}
