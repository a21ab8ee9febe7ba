package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"cargo-booking/internal/data/entity"
	"cargo-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay carries status broadcasts between server instances. Every
// instance publishes committed transitions to one channel and broadcasts
// whatever arrives on it to its own registry, so each connection sees
// each transition once no matter which instance committed it.
//
// While this instance is not subscribed, transitions are broadcast
// locally as well as published, so local connections never miss one.
type RedisRelay struct {
	client     *redis.Client
	channel    string
	local      *Dispatcher
	subscribed atomic.Bool
	retryBase  time.Duration
	retryCap   time.Duration
	log        *zap.Logger
}

func NewRedisClient(cfg utils.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisRelay(client *redis.Client, channel string, local *Dispatcher, log *zap.Logger) *RedisRelay {
	return &RedisRelay{
		client:    client,
		channel:   channel,
		local:     local,
		retryBase: 500 * time.Millisecond,
		retryCap:  30 * time.Second,
		log:       log.With(zap.String("component", "relay")),
	}
}

// Subscribed reports whether relayed events currently reach this
// instance's registry.
func (r *RedisRelay) Subscribed() bool {
	return r.subscribed.Load()
}

// NotifyStatusChanged publishes the event. If Redis is unreachable, or
// this instance is not subscribed, the event is broadcast locally so
// this instance's clients still see it.
func (r *RedisRelay) NotifyStatusChanged(ctx context.Context, booking *entity.Booking) error {
	payload, err := json.Marshal(StatusChangedEvent(booking))
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}

	if !r.subscribed.Load() {
		r.log.Debug("Relay not subscribed, broadcasting locally", zap.Int64("booking_id", booking.ID))
		r.local.NotifyStatusChanged(ctx, booking)

		// other instances may still be listening
		if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
			r.log.Warn("Relay publish failed", zap.Int64("booking_id", booking.ID), zap.Error(err))
		}
		return nil
	}

	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.log.Warn("Relay publish failed, broadcasting locally",
			zap.Int64("booking_id", booking.ID),
			zap.Error(err),
		)
		return r.local.NotifyStatusChanged(ctx, booking)
	}

	return nil
}

// Run forwards relayed events to the local dispatcher until ctx ends.
// A failed or dropped subscription is retried with capped exponential
// backoff.
func (r *RedisRelay) Run(ctx context.Context) error {
	delay := r.retryBase
	for {
		established, err := r.subscribe(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if established {
			delay = r.retryBase
		}

		r.log.Warn("Relay subscription down, retrying",
			zap.String("channel", r.channel),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay = min(delay*2, r.retryCap)
	}
}

// subscribe holds one subscription until it fails or ctx ends. It
// reports whether the subscription was confirmed before failing.
func (r *RedisRelay) subscribe(ctx context.Context) (bool, error) {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return false, fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	r.subscribed.Store(true)
	defer r.subscribed.Store(false)
	r.log.Info("Relay subscribed", zap.String("channel", r.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return true, fmt.Errorf("subscription %s closed", r.channel)
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.log.Warn("Dropping malformed relay message", zap.Error(err))
				continue
			}
			r.local.Broadcast(ev)
		}
	}
}
