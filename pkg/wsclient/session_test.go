package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cargo-booking/internal/realtime"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_DefaultSchedule(t *testing.T) {
	b := DefaultBackoff()

	var delays []time.Duration
	for attempt := 0; !b.Exhausted(attempt); attempt++ {
		delays = append(delays, b.Delay(attempt))
	}

	assert.Equal(t, []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
	}, delays)
}

func TestBackoff_Cap(t *testing.T) {
	b := Backoff{Base: time.Second, Cap: 30 * time.Second, MaxAttempts: 10}

	assert.Equal(t, 30*time.Second, b.Delay(5))
	assert.Equal(t, 30*time.Second, b.Delay(9))
	assert.Equal(t, 30*time.Second, b.Delay(62))
	assert.Equal(t, time.Second, b.Delay(-1))
	assert.Equal(t, 500*time.Millisecond, Backoff{Base: time.Second, Cap: 500 * time.Millisecond}.Delay(0))
}

// script is one scripted dial outcome: an error, or a connection that
// yields frames and then fails with readErr.
type script struct {
	err     error
	frames  [][]byte
	readErr error
}

type fakeConn struct {
	mu      sync.Mutex
	frames  [][]byte
	readErr error
	block   bool
	closed  chan struct{}
	once    sync.Once
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	if len(c.frames) > 0 {
		f := c.frames[0]
		c.frames = c.frames[1:]
		c.mu.Unlock()
		return websocket.TextMessage, f, nil
	}
	c.mu.Unlock()

	if c.block {
		<-c.closed
		return 0, nil, io.EOF
	}
	return 0, nil, c.readErr
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

type fakeDialer struct {
	mu      sync.Mutex
	scripts []script
	dials   int
	last    *fakeConn

	// fallback is used once scripts run out
	fallback script
	block    bool
}

func (d *fakeDialer) Dial(context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++

	sc := d.fallback
	if len(d.scripts) > 0 {
		sc = d.scripts[0]
		d.scripts = d.scripts[1:]
	}
	if sc.err != nil {
		return nil, sc.err
	}
	d.last = &fakeConn{frames: sc.frames, readErr: sc.readErr, block: d.block, closed: make(chan struct{})}
	return d.last, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// recordingTimer fires every delay immediately and remembers it.
type recordingTimer struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingTimer) after(d time.Duration) <-chan time.Time {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func (r *recordingTimer) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func frame(t *testing.T, ev realtime.Event) []byte {
	t.Helper()
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return raw
}

var refused = errors.New("connection refused")

func seconds(ns ...int) []time.Duration {
	out := make([]time.Duration, len(ns))
	for i, n := range ns {
		out[i] = time.Duration(n) * time.Second
	}
	return out
}

func TestSession_GivesUpAfterMaxAttempts(t *testing.T) {
	dialer := &fakeDialer{fallback: script{err: refused}}
	timer := &recordingTimer{}

	var mu sync.Mutex
	var lastErr error
	s := NewSession(dialer, WithTimer(timer.after), OnState(func(st State, err error) {
		mu.Lock()
		defer mu.Unlock()
		if st == StateDisconnected {
			lastErr = err
		}
	}))

	require.NoError(t, s.Start(t.Context()))
	s.Wait()

	assert.Equal(t, seconds(1, 2, 4, 8, 16), timer.recorded())
	assert.Equal(t, 6, dialer.count(), "initial dial plus five retries, no sixth retry")
	assert.Equal(t, StateDisconnected, s.State())

	mu.Lock()
	assert.ErrorIs(t, lastErr, ErrRetriesExhausted)
	assert.ErrorIs(t, lastErr, refused)
	mu.Unlock()
}

func TestSession_RestartAfterGivingUp(t *testing.T) {
	dialer := &fakeDialer{fallback: script{err: refused}}
	timer := &recordingTimer{}
	s := NewSession(dialer, WithTimer(timer.after), WithBackoff(Backoff{Base: time.Second, Cap: time.Minute, MaxAttempts: 2}))

	require.NoError(t, s.Start(t.Context()))
	s.Wait()
	require.NoError(t, s.Restart(t.Context()))
	s.Wait()

	assert.Equal(t, seconds(1, 2, 1, 2), timer.recorded())
	assert.Equal(t, 6, dialer.count())
}

func TestSession_ConnectedResetsAttempts(t *testing.T) {
	hello := frame(t, realtime.Event{Type: realtime.EventConnected})
	dropped := script{frames: [][]byte{hello}, readErr: io.ErrUnexpectedEOF}
	dialer := &fakeDialer{
		scripts:  []script{dropped, dropped, dropped},
		fallback: script{err: refused},
	}
	timer := &recordingTimer{}

	var mu sync.Mutex
	var states []State
	s := NewSession(dialer, WithTimer(timer.after), OnState(func(st State, _ error) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	}))

	require.NoError(t, s.Start(t.Context()))
	s.Wait()

	assert.Equal(t, seconds(1, 1, 1, 2, 4, 8, 16), timer.recorded())
	assert.Equal(t, 8, dialer.count())

	mu.Lock()
	assert.Equal(t, []State{StateConnecting, StateConnected, StateDisconnected}, states[:3])
	mu.Unlock()
}

func TestSession_RejectedHandshakeIsAFailedAttempt(t *testing.T) {
	rejected := &websocket.CloseError{Code: realtime.CloseUnauthenticated, Text: realtime.ReasonUnauthenticated}
	dialer := &fakeDialer{fallback: script{readErr: rejected}}
	timer := &recordingTimer{}

	var mu sync.Mutex
	var sawUnauthenticated bool
	s := NewSession(dialer, WithTimer(timer.after), OnState(func(_ State, err error) {
		mu.Lock()
		sawUnauthenticated = sawUnauthenticated || IsUnauthenticated(err)
		mu.Unlock()
	}))

	require.NoError(t, s.Start(t.Context()))
	s.Wait()

	assert.Equal(t, seconds(1, 2, 4, 8, 16), timer.recorded())
	mu.Lock()
	assert.True(t, sawUnauthenticated)
	mu.Unlock()
}

func TestSession_CloseCancelsPendingReconnect(t *testing.T) {
	dialer := &fakeDialer{fallback: script{err: refused}}
	scheduled := make(chan time.Duration, 1)
	never := func(d time.Duration) <-chan time.Time {
		scheduled <- d
		return make(chan time.Time)
	}
	s := NewSession(dialer, WithTimer(never))

	require.NoError(t, s.Start(t.Context()))
	assert.Equal(t, time.Second, <-scheduled)

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	assert.Equal(t, 1, dialer.count())
	assert.Equal(t, StateClosing, s.State())
	assert.NoError(t, s.Close())
	assert.ErrorIs(t, s.Start(t.Context()), ErrClosed)
}

func TestSession_CloseDropsLiveConnection(t *testing.T) {
	hello := frame(t, realtime.Event{Type: realtime.EventConnected})
	dialer := &fakeDialer{fallback: script{frames: [][]byte{hello}}, block: true}

	connected := make(chan struct{})
	var once sync.Once
	s := NewSession(dialer, OnState(func(st State, _ error) {
		if st == StateConnected {
			once.Do(func() { close(connected) })
		}
	}))

	require.NoError(t, s.Start(t.Context()))
	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("never connected")
	}

	require.NoError(t, s.Close())

	select {
	case <-dialer.last.closed:
	default:
		t.Fatal("live connection left open")
	}
	assert.Equal(t, 1, dialer.count())
}

func TestSession_CloseFromStateCallback(t *testing.T) {
	dialer := &fakeDialer{fallback: script{err: refused}}
	timer := &recordingTimer{}

	var (
		s        *Session
		closeErr = make(chan error, 1)
		once     sync.Once
	)
	s = NewSession(dialer, WithTimer(timer.after), OnState(func(st State, _ error) {
		if st == StateDisconnected {
			once.Do(func() { closeErr <- s.Close() })
		}
	}))

	require.NoError(t, s.Start(t.Context()))

	select {
	case err := <-closeErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("Close inside OnState never returned; state=%s dials=%d", s.State(), dialer.count())
	}

	joined := make(chan struct{})
	go func() {
		s.Wait()
		close(joined)
	}()
	select {
	case <-joined:
	case <-time.After(2 * time.Second):
		t.Fatal("loop kept running after Close")
	}

	assert.Equal(t, StateClosing, s.State())
	assert.Equal(t, 1, dialer.count())
	assert.Empty(t, timer.recorded())
}

func TestSession_CloseFromEventCallback(t *testing.T) {
	hello := frame(t, realtime.Event{Type: realtime.EventConnected})
	dialer := &fakeDialer{fallback: script{frames: [][]byte{hello}}, block: true}

	var (
		s      *Session
		events int
		mu     sync.Mutex
		closed = make(chan struct{})
	)
	s = NewSession(dialer, OnEvent(func(realtime.Event) {
		mu.Lock()
		events++
		mu.Unlock()
		s.Close()
		close(closed)
	}))

	require.NoError(t, s.Start(t.Context()))

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close inside OnEvent never returned")
	}
	s.Wait()

	select {
	case <-dialer.last.closed:
	default:
		t.Fatal("live connection left open")
	}
	mu.Lock()
	assert.Equal(t, 1, events)
	mu.Unlock()
	assert.Equal(t, 1, dialer.count())
}

func TestSession_DeliversEvents(t *testing.T) {
	events := make(chan realtime.Event, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(realtime.Event{Type: realtime.EventConnected, Message: "hi"})
		conn.WriteJSON(realtime.LocationEvent(realtime.Location{Lat: 1, Lng: 2}))
		conn.ReadMessage()
	}))
	defer srv.Close()

	dialer := &WebsocketDialer{URL: "ws" + strings.TrimPrefix(srv.URL, "http")}
	s := NewSession(dialer, OnEvent(func(ev realtime.Event) { events <- ev }))
	require.NoError(t, s.Start(t.Context()))
	defer s.Close()

	first := <-events
	second := <-events
	assert.Equal(t, realtime.EventConnected, first.Type)
	assert.Equal(t, realtime.EventLocationUpdate, second.Type)
	assert.Equal(t, StateConnected, s.State())
}
