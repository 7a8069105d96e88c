package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"corridors-server/internal/shared/config"
	"corridors-server/internal/shared/errors"
	"corridors-server/internal/shared/response"
)

// RequireAdmin gates world-mutating endpoints behind the shared admin
// token. With no token configured, every admin endpoint is closed.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "admin",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		token := config.GlobalConfig.Admin.Token
		if token == "" {
			logger.Warn("Admin endpoint hit but no admin token configured")
			response.Error(w, r, logger, errors.Unauthorized("admin access not configured"))
			return
		}

		provided := r.Header.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			logger.Warn("Invalid admin token")
			response.Error(w, r, logger, errors.Unauthorized("invalid admin token"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
