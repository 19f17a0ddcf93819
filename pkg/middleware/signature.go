package middleware

import (
	"net/http"

	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/logger"
)

// RequireSignature turns away webhook calls without a signature header
// before their body is read. Verifying the signature itself is left to the
// handler, which knows the signing scheme.
func RequireSignature(header string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(header) == "" {
				log.Warn("Webhook call without signature",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				_ = apperrors.WriteError(w, apperrors.Unauthorized("Invalid event signature"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
