package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cargo-booking/internal/realtime"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrClosed           = errors.New("session closed")
	ErrRetriesExhausted = errors.New("reconnect attempts exhausted")
)

// Conn is the part of a websocket connection the session reads from.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// WebsocketDialer dials URL with Header, which carries the session
// cookie or bearer token the server resolves during the handshake.
type WebsocketDialer struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer
}

func (d *WebsocketDialer) Dial(ctx context.Context) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, d.URL, d.Header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// IsUnauthenticated reports whether err is the server refusing the
// handshake for lack of a valid session.
func IsUnauthenticated(err error) bool {
	var closeErr *websocket.CloseError
	return errors.As(err, &closeErr) && closeErr.Code == realtime.CloseUnauthenticated
}

type Option func(*Session)

func WithBackoff(b Backoff) Option {
	return func(s *Session) { s.backoff = b }
}

// WithTimer replaces time.After for reconnect delays.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(s *Session) { s.after = after }
}

// OnState is called on every state change, with the error that caused
// it when there is one. Callbacks run on the session's goroutine and may
// call Close.
func OnState(fn func(State, error)) Option {
	return func(s *Session) { s.onState = fn }
}

func OnEvent(fn func(realtime.Event)) Option {
	return func(s *Session) { s.onEvent = fn }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

// Session keeps one tracking channel open, reconnecting with backoff.
//
// The session only counts as connected once the server's CONNECTED event
// arrives, so a handshake the server closes straight away (for example an
// expired session) is a failed attempt and does not reset the backoff.
type Session struct {
	dialer  Dialer
	backoff Backoff
	after   func(time.Duration) <-chan time.Time
	onState func(State, error)
	onEvent func(realtime.Event)
	log     *zap.Logger

	mu      sync.Mutex
	state   State
	attempt int
	conn    Conn
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	closed  bool

	// set while the loop goroutine is inside onState or onEvent
	inCallback bool
}

func NewSession(dialer Dialer, opts ...Option) *Session {
	s := &Session{
		dialer:  dialer,
		backoff: DefaultBackoff(),
		after:   time.After,
		onState: func(State, error) {},
		onEvent: func(realtime.Event) {},
		log:     zap.NewNop(),
		state:   StateDisconnected,
	}
	for _, opt := range opts {
		opt(s)
	}

	def := DefaultBackoff()
	if s.backoff.Base <= 0 {
		s.backoff.Base = def.Base
	}
	if s.backoff.Cap <= 0 {
		s.backoff.Cap = def.Cap
	}
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start launches the connect loop. It is a no-op while the loop runs and
// fails with ErrClosed after Close.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(loopCtx, s.done)
	return nil
}

// Restart clears the retry budget and starts again. Use it once the
// session has given up after MaxAttempts.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.attempt = 0
	}
	s.mu.Unlock()
	return s.Start(ctx)
}

// Wait blocks until the connect loop exits, either because retries ran
// out or because the session was closed.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Close cancels any pending reconnect, closes the live connection and
// waits for the loop to exit. Calling it again does nothing.
//
// Called from an OnState or OnEvent callback, Close does the same
// teardown but returns without waiting, since the loop cannot exit until
// the callback does. No callback fires once Close returns; use Wait
// to join the loop.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.state = StateClosing
	cancel, done, conn := s.cancel, s.done, s.conn
	reentrant := s.inCallback
	s.mu.Unlock()

	s.onState(StateClosing, nil)

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	if done != nil && !reentrant {
		<-done
	}
	return nil
}

func (s *Session) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(done)
	}()

	for {
		s.setState(StateConnecting, nil)

		err := s.connectOnce(ctx)
		if ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		attempt := s.attempt
		exhausted := s.backoff.Exhausted(attempt)
		if !exhausted {
			s.attempt++
		}
		s.mu.Unlock()

		if exhausted {
			s.log.Warn("Giving up on tracking channel", zap.Int("attempts", attempt), zap.Error(err))
			s.setState(StateDisconnected, fmt.Errorf("%w: %w", ErrRetriesExhausted, err))
			return
		}

		delay := s.backoff.Delay(attempt)
		s.log.Info("Tracking channel down, reconnecting",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		s.setState(StateDisconnected, err)
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-s.after(delay):
		}
	}
}

// connectOnce dials and reads until the connection drops. The returned
// error says why.
func (s *Session) connectOnce(ctx context.Context) error {
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	s.conn = conn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()

	connected := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var ev realtime.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			s.log.Warn("Ignoring malformed event", zap.Error(err))
			continue
		}

		if !connected && ev.Type == realtime.EventConnected {
			connected = true
			s.mu.Lock()
			s.attempt = 0
			s.mu.Unlock()
			s.setState(StateConnected, nil)
		}
		s.emit(func() { s.onEvent(ev) })
	}
}

// setState never moves a closed session out of StateClosing.
func (s *Session) setState(state State, cause error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()

	s.emit(func() { s.onState(state, cause) })
}

// emit runs a user callback from the loop goroutine, unless the session
// has been closed.
func (s *Session) emit(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.inCallback = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inCallback = false
		s.mu.Unlock()
	}()
	fn()
}
