package wsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"cargo-booking/internal/data/entity"
	"cargo-booking/internal/dto/request"
	"cargo-booking/internal/dto/response"
	"cargo-booking/internal/lifecycle"
)

// APIError is a non-2xx answer from the booking API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Is maps status codes onto the domain errors, so callers can use
// errors.Is the same way on either side of the wire.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return target == entity.ErrUnauthenticated
	case http.StatusNotFound:
		return target == entity.ErrBookingNotFound
	case http.StatusConflict:
		return target == entity.ErrInvalidTransition
	case http.StatusForbidden:
		return target == entity.ErrForbiddenTransition
	}
	return false
}

// API is a client for the booking endpoints. It holds the session token
// after Login.
type API struct {
	baseURL string
	client  *http.Client
	token   string
}

func NewAPI(baseURL string, client *http.Client) *API {
	if client == nil {
		client = http.DefaultClient
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (a *API) Token() string { return a.token }

func (a *API) SetToken(token string) { a.token = token }

func (a *API) Login(ctx context.Context, username, password string) (*response.AuthResponse, error) {
	var out response.AuthResponse
	err := a.do(ctx, http.MethodPost, "/api/login", request.LoginRequest{Username: username, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	a.token = out.Token
	return &out, nil
}

func (a *API) CreateBooking(ctx context.Context, req request.CreateBookingRequest) (*response.BookingResponse, error) {
	var out response.BookingResponse
	if err := a.do(ctx, http.MethodPost, "/api/bookings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBookings returns the caller's bookings, newest first.
func (a *API) ListBookings(ctx context.Context) ([]response.BookingResponse, error) {
	var out []response.BookingResponse
	if err := a.do(ctx, http.MethodGet, "/api/bookings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus asks the server to move booking to status. Edges the
// lifecycle graph never allows are refused locally without a request;
// anything else is decided by the server.
func (a *API) UpdateStatus(ctx context.Context, booking response.BookingResponse, status entity.BookingStatus) (*response.BookingResponse, error) {
	if !lifecycle.CanTransition(booking.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", entity.ErrInvalidTransition, booking.Status, status)
	}

	var out response.BookingResponse
	path := fmt.Sprintf("/api/bookings/%d/status", booking.ID)
	if err := a.do(ctx, http.MethodPatch, path, request.UpdateBookingStatusRequest{Status: string(status)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TrackingDialer returns a dialer for the tracking socket at path that
// authenticates with the current token.
func (a *API) TrackingDialer(path string) (*WebsocketDialer, error) {
	u, err := url.Parse(a.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("tracking url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	header := http.Header{}
	if a.token != "" {
		header.Set("Authorization", "Bearer "+a.token)
	}
	return &WebsocketDialer{URL: u.String(), Header: header}, nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 300 || !env.Status {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s data: %w", method, path, err)
		}
	}
	return nil
}
