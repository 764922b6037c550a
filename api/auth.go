package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"
)

// requireAdmin guards an operator endpoint with the WithAdminToken bearer
// token. Without a configured token the endpoint is disabled.
func (s *Server) requireAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			respondError(w, http.StatusForbidden, "operator endpoints are disabled")
			return
		}
		token, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			hlog.FromRequest(r).Warn().Str("path", r.URL.Path).Msg("operator request refused")
			w.Header().Set("WWW-Authenticate", `Bearer realm="lastword"`)
			respondError(w, http.StatusUnauthorized, "missing or invalid operator token")
			return
		}
		next(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
