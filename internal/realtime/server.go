package realtime

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"cargo-booking/internal/data/entity"
	"cargo-booking/pkg/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// CloseUnauthenticated is sent when the handshake carries no usable
// session. It sits in the application range so clients can tell it
// apart from ordinary closes.
const CloseUnauthenticated = 4401

const ReasonUnauthenticated = "unauthenticated"

// IdentityResolver turns a session token into the caller's identity. It
// returns an error wrapping entity.ErrUnauthenticated for unknown tokens.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*entity.Identity, error)
}

// Server is the websocket endpoint.
type Server struct {
	registry *Registry
	resolver IdentityResolver
	upgrader websocket.Upgrader
	cfg      utils.RealtimeConfig
	cookie   string
	location func() Location
	log      *zap.Logger
}

func NewServer(registry *Registry, resolver IdentityResolver, cfg utils.RealtimeConfig, cookie string, log *zap.Logger) *Server {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 16
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	return &Server{
		registry: registry,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the session cookie is the gate; CORS is handled upstream
			CheckOrigin: func(*http.Request) bool { return true },
		},
		cfg:      cfg,
		cookie:   cookie,
		location: SimulatedLocation,
		log:      log.With(zap.String("component", "realtime")),
	}
}

// ServeHTTP runs one connection for its whole life.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, resolveErr := s.resolver.ResolveIdentity(r.Context(), utils.TokenFromRequest(r, s.cookie))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	if resolveErr != nil {
		code, reason := CloseUnauthenticated, ReasonUnauthenticated
		if !errors.Is(resolveErr, entity.ErrUnauthenticated) {
			s.log.Error("Identity lookup failed", zap.Error(resolveErr))
			code, reason = websocket.CloseInternalServerErr, "identity lookup failed"
		} else {
			s.log.Info("Rejected unauthenticated websocket", zap.String("ip", r.RemoteAddr))
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(s.cfg.WriteTimeout))
		conn.Close()
		return
	}

	client := newClient(conn, *identity, s.cfg.SendBuffer, s.log)
	s.registry.Register(identity.UserID, client)
	client.log.Info("Websocket connected", zap.Int("live", s.registry.Len()))

	defer func() {
		s.registry.Unregister(client)
		client.Close()
		client.log.Info("Websocket disconnected", zap.Int("live", s.registry.Len()))
	}()

	client.Send(ConnectedEvent(*identity))

	go client.writePump(s.cfg.PingInterval, s.cfg.WriteTimeout)
	go client.locationPump(s.cfg.LocationInterval, s.location)

	client.readPump(s.cfg.PingInterval * 2)
}

// SimulatedLocation jitters around a fixed origin; there is no real GPS
// feed behind the tracking view yet.
func SimulatedLocation() Location {
	return Location{
		Lat: 40.7128 + (rand.Float64()-0.5)*0.01,
		Lng: -74.0060 + (rand.Float64()-0.5)*0.01,
	}
}
