package middleware

import (
	"log/slog"
	"net/http"

	"registrar/internal/platform/config"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

// ServiceTypeGate enforces the deployment-time capability of this instance.
// Reader instances refuse write verbs, writer instances refuse reads, the
// default profile passes everything through. This is a capability gate, not
// a security boundary: it stops a misconfigured caller from landing writes
// on a read replica. Rejection happens before any handler or store runs and
// is final for the request.
func ServiceTypeGate(serviceType config.ServiceType, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Allowed(serviceType, r.Method) {
				logger.WarnContext(r.Context(), "request rejected by service-type gate",
					"request_id", requestcontext.RequestID(r.Context()),
					"service_type", string(serviceType),
					"method", r.Method,
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden,
					"operation not permitted on a "+string(serviceType)+" instance"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Allowed reports whether a verb is served by the given service type.
func Allowed(serviceType config.ServiceType, method string) bool {
	switch serviceType {
	case config.ServiceTypeReader:
		switch method {
		case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
			return false
		}
	case config.ServiceTypeWriter:
		if method == http.MethodGet {
			return false
		}
	}
	return true
}
