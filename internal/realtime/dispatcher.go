package realtime

import (
	"context"

	"cargo-booking/internal/data/entity"

	"go.uber.org/zap"
)

// Dispatcher delivers events to every connection in a Registry,
// regardless of who owns the booking an event is about.
type Dispatcher struct {
	registry *Registry
	log      *zap.Logger
}

func NewDispatcher(registry *Registry, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		log:      log.With(zap.String("component", "dispatcher")),
	}
}

// NotifyStatusChanged broadcasts a committed transition. It never fails:
// the transition is already durable, and delivery is best effort.
func (d *Dispatcher) NotifyStatusChanged(_ context.Context, booking *entity.Booking) error {
	delivered, failed := d.Broadcast(StatusChangedEvent(booking))

	d.log.Debug("Booking status broadcast",
		zap.Int64("booking_id", booking.ID),
		zap.String("status", string(booking.Status)),
		zap.Int("delivered", delivered),
		zap.Int("failed", failed),
	)
	return nil
}

// Broadcast sends ev to every registered handle. A failing handle is
// logged and skipped.
func (d *Dispatcher) Broadcast(ev Event) (delivered, failed int) {
	for _, sub := range d.registry.Subscriptions() {
		if err := d.send(sub.Handle, ev); err != nil {
			failed++
			d.log.Warn("Dropped event for connection",
				zap.String("connection_id", sub.Handle.ID()),
				zap.String("user_id", sub.Identity.String()),
				zap.String("event", string(ev.Type)),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered, failed
}

// send isolates one handle, panics included, from the rest of the loop.
func (d *Dispatcher) send(h Handle, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Connection send panicked",
				zap.String("connection_id", h.ID()),
				zap.Any("panic", r),
			)
			err = entity.ErrTransportFailure
		}
	}()
	return h.Send(ev)
}
