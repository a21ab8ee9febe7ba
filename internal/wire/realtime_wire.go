package wire

import (
	"cargo-booking/internal/realtime"
	"cargo-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// wireRealtime mounts the tracking socket. It authenticates during the
// handshake itself, so AuthSession is not applied: an unauthenticated
// client must get a close frame, not a JSON 401.
func wireRealtime(r chi.Router, tracking *realtime.Server, config *utils.Config) {
	path := config.Realtime.Path
	if path == "" {
		path = "/ws"
	}
	r.Handle(path, tracking)
}
