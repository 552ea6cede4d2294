package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

// TokenValidator validates write tokens. Satisfied by jwttoken.Service.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims is the subset of token claims the gate cares about.
type Claims struct {
	Subject string
}

// RequireWriteToken rejects mutating requests without a valid bearer token.
// Read verbs pass untouched; the gate is a deployment guard layered on top
// of the service-type gate, not an end-user auth system.
func RequireWriteToken(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
			default:
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			if _, err := validator.ValidateToken(token); err != nil {
				logger.WarnContext(r.Context(), "write token rejected",
					"request_id", requestcontext.RequestID(r.Context()),
					"error", err.Error(),
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
