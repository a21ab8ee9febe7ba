package utils

import (
	"net/http"
	"strings"
)

// TokenFromRequest finds the session token on a request. Browsers cannot
// set headers on a websocket handshake, so the cookie and the token
// query parameter are accepted alongside the Authorization header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}

	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}

	return r.URL.Query().Get("token")
}
