package adaptor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cargo-booking/internal/data/entity"
	"cargo-booking/internal/dto/request"
	"cargo-booking/internal/dto/response"
	"cargo-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, identity entity.Identity, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

func (m *MockBookingService) GetUserBookings(ctx context.Context, identity entity.Identity) ([]response.BookingResponse, error) {
	args := m.Called(ctx, identity)
	return args.Get(0).([]response.BookingResponse), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, identity entity.Identity, bookingID int64) (*response.BookingResponse, error) {
	args := m.Called(ctx, identity, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

func (m *MockBookingService) UpdateStatus(ctx context.Context, identity entity.Identity, bookingID int64, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, identity, bookingID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, identity entity.Identity) (*response.UserResponse, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.UserResponse), args.Error(1)
}

func (m *MockAuthService) ResolveIdentity(ctx context.Context, token string) (*entity.Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Identity), args.Error(1)
}

var caller = entity.Identity{UserID: uuid.New(), Username: "shipper", Role: entity.RoleCustomer}

// serve routes req through a chi router so URL params resolve, with the
// caller already authenticated unless anonymous is set.
func serve(pattern, method string, h http.HandlerFunc, req *http.Request, anonymous bool) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	if !anonymous {
		ctx := utils.SetIdentityContext(req.Context(), caller)
		ctx = utils.SetTokenContext(ctx, "tok")
		req = req.WithContext(ctx)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var body utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestBookingHandler_UpdateStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", fmt.Errorf("booking 7: %w", entity.ErrBookingNotFound), http.StatusNotFound},
		{"invalid transition", fmt.Errorf("%w: pending -> in_transit", entity.ErrInvalidTransition), http.StatusConflict},
		{"concurrent update", entity.ErrConcurrentUpdate, http.StatusConflict},
		{"forbidden", entity.ErrForbiddenTransition, http.StatusForbidden},
		{"storage failure", fmt.Errorf("load booking 7: connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &MockBookingService{}
			h := NewBookingHandler(svc, zap.NewNop())
			svc.On("UpdateStatus", mock.Anything, caller, int64(7), &request.UpdateBookingStatusRequest{Status: "in_transit"}).
				Return(nil, tc.err)

			req := httptest.NewRequest(http.MethodPatch, "/api/bookings/7/status", strings.NewReader(`{"status":"in_transit"}`))
			w := serve("/api/bookings/{id}/status", http.MethodPatch, h.UpdateStatus, req, false)

			assert.Equal(t, tc.code, w.Code)
			assert.False(t, decode(t, w).Status)
			svc.AssertExpectations(t)
		})
	}

	t.Run("success", func(t *testing.T) {
		svc := &MockBookingService{}
		h := NewBookingHandler(svc, zap.NewNop())
		svc.On("UpdateStatus", mock.Anything, caller, int64(7), &request.UpdateBookingStatusRequest{Status: "accepted"}).
			Return(&response.BookingResponse{ID: 7, Status: entity.BookingStatusAccepted, UpdatedAt: time.Now()}, nil)

		req := httptest.NewRequest(http.MethodPatch, "/api/bookings/7/status", strings.NewReader(`{"status":"accepted"}`))
		w := serve("/api/bookings/{id}/status", http.MethodPatch, h.UpdateStatus, req, false)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.True(t, body.Status)
		assert.Equal(t, "accepted", body.Data.(map[string]any)["status"])
	})

	t.Run("bad id", func(t *testing.T) {
		svc := &MockBookingService{}
		h := NewBookingHandler(svc, zap.NewNop())

		req := httptest.NewRequest(http.MethodPatch, "/api/bookings/abc/status", strings.NewReader(`{"status":"accepted"}`))
		w := serve("/api/bookings/{id}/status", http.MethodPatch, h.UpdateStatus, req, false)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown status never reaches the service", func(t *testing.T) {
		svc := &MockBookingService{}
		h := NewBookingHandler(svc, zap.NewNop())

		req := httptest.NewRequest(http.MethodPatch, "/api/bookings/7/status", strings.NewReader(`{"status":"teleported"}`))
		w := serve("/api/bookings/{id}/status", http.MethodPatch, h.UpdateStatus, req, false)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w).Errors, "Status")
	})

	t.Run("anonymous", func(t *testing.T) {
		h := NewBookingHandler(&MockBookingService{}, zap.NewNop())

		req := httptest.NewRequest(http.MethodPatch, "/api/bookings/7/status", strings.NewReader(`{"status":"accepted"}`))
		w := serve("/api/bookings/{id}/status", http.MethodPatch, h.UpdateStatus, req, true)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestBookingHandler_CreateBooking(t *testing.T) {
	svc := &MockBookingService{}
	h := NewBookingHandler(svc, zap.NewNop())
	svc.On("CreateBooking", mock.Anything, caller, mock.AnythingOfType("*request.CreateBookingRequest")).
		Return(&response.BookingResponse{ID: 1, Status: entity.BookingStatusPending}, nil)

	body := `{"vehicleType":"truck-18","pickupLocation":"A","dropoffLocation":"B","pickupCoords":"1,2","dropoffCoords":"3,4"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body))
	w := serve("/api/bookings", http.MethodPost, h.CreateBooking, req, false)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "pending", decode(t, w).Data.(map[string]any)["status"])
}

func TestBookingHandler_GetBooking(t *testing.T) {
	svc := &MockBookingService{}
	h := NewBookingHandler(svc, zap.NewNop())
	svc.On("GetBooking", mock.Anything, caller, int64(12)).Return(nil, entity.ErrBookingNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/12", nil)
	w := serve("/api/bookings/{id}", http.MethodGet, h.GetBooking, req, false)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_GetUserBookings(t *testing.T) {
	svc := &MockBookingService{}
	h := NewBookingHandler(svc, zap.NewNop())
	svc.On("GetUserBookings", mock.Anything, caller).Return([]response.BookingResponse{{ID: 2}, {ID: 1}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	w := serve("/api/bookings", http.MethodGet, h.GetUserBookings, req, false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Data, 2)
}

func TestAuthHandler_LoginSetsCookie(t *testing.T) {
	svc := &MockAuthService{}
	h := NewAuthHandler(svc, utils.SessionConfig{CookieName: "session_token"}, zap.NewNop())
	expires := time.Now().Add(time.Hour)
	svc.On("Login", mock.Anything, &request.LoginRequest{Username: "u", Password: "p"}).
		Return(&response.AuthResponse{Token: "abc", ExpiresAt: expires}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"u","password":"p"}`))
	w := serve("/api/login", http.MethodPost, h.Login, req, true)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_token", cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestAuthHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{entity.ErrInvalidCredentials, http.StatusUnauthorized},
		{entity.ErrAccountDeactivated, http.StatusForbidden},
		{fmt.Errorf("%w: Username: required", entity.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		svc := &MockAuthService{}
		h := NewAuthHandler(svc, utils.SessionConfig{CookieName: "session_token"}, zap.NewNop())
		svc.On("Login", mock.Anything, mock.Anything).Return(nil, tc.err)

		req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"u","password":"p"}`))
		w := serve("/api/login", http.MethodPost, h.Login, req, true)

		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	svc := &MockAuthService{}
	h := NewAuthHandler(svc, utils.SessionConfig{CookieName: "session_token"}, zap.NewNop())
	svc.On("Logout", mock.Anything, "tok").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	w := serve("/api/logout", http.MethodPost, h.Logout, req, false)

	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	svc.AssertExpectations(t)
}

func TestAuthHandler_Me(t *testing.T) {
	svc := &MockAuthService{}
	h := NewAuthHandler(svc, utils.SessionConfig{}, zap.NewNop())
	svc.On("Me", mock.Anything, caller).Return(&response.UserResponse{ID: caller.UserID.String(), Username: "shipper"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	w := serve("/api/user", http.MethodGet, h.Me, req, false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shipper", decode(t, w).Data.(map[string]any)["username"])
}
