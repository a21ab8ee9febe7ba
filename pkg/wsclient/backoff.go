// Package wsclient is the client half of the tracking channel: a
// reconnecting websocket session and a small REST client for the
// booking API.
package wsclient

import "time"

// Backoff is an exponential reconnect schedule: the delay before retry n
// (counting from zero) is min(Base * 2^n, Cap), and at most MaxAttempts
// retries are scheduled in a row.
type Backoff struct {
	Base        time.Duration
	Cap         time.Duration
	MaxAttempts int
}

func DefaultBackoff() Backoff {
	return Backoff{
		Base:        time.Second,
		Cap:         30 * time.Second,
		MaxAttempts: 5,
	}
}

func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := b.Base
	for i := 0; i < attempt; i++ {
		if delay >= b.Cap/2 {
			return b.Cap
		}
		delay *= 2
	}
	if delay > b.Cap {
		return b.Cap
	}
	return delay
}

// Exhausted reports whether no retry may follow attempt failed cycles.
func (b Backoff) Exhausted(attempt int) bool {
	return attempt >= b.MaxAttempts
}
