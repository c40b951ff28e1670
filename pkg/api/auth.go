package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/snapvault/browser/internal/config"
)

// authenticator validates a request under one of the three configured auth
// modes and returns the identity to attribute the request to.
type authenticator struct {
	cfg config.AuthConfig
}

func newAuthenticator(cfg config.AuthConfig) *authenticator {
	return &authenticator{cfg: cfg}
}

// authenticate mirrors the original deployment's three modes: HTTP Basic
// (default), a trusted reverse-proxy header (the Go-native generalization of
// trusting Cloudflare Access), or no authentication at all. It returns the
// resolved identity and whether the request may proceed.
func (a *authenticator) authenticate(r *http.Request) (string, bool) {
	switch a.cfg.Mode {
	case config.AuthModeNone:
		return "anonymous", true

	case config.AuthModeHeader:
		if v := r.Header.Get(a.cfg.TrustHeader); v != "" {
			return v, true
		}
		return "", false

	default: // config.AuthModeBasic
		username, password, ok := r.BasicAuth()
		if !ok {
			return "", false
		}
		userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(a.cfg.Username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(password), []byte(a.cfg.Password)) == 1
		if userMatch && passMatch {
			return username, true
		}
		return "", false
	}
}

// middleware wraps next with authentication, rejecting with 401 (and a
// WWW-Authenticate challenge for basic auth) or 403 for a failed header check.
func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := a.authenticate(r)
		if !ok {
			if a.cfg.Mode == config.AuthModeBasic {
				w.Header().Set("WWW-Authenticate", `Basic realm="snapvault"`)
				respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			respondError(w, http.StatusForbidden, "authentication required")
			return
		}
		r = r.WithContext(withIdentity(r.Context(), identity))
		next.ServeHTTP(w, r)
	})
}
