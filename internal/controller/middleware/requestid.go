// Package middleware contains HTTP middleware for the controller API.
package middleware

import (
	"net/http"

	"flowplane/internal/logger"

	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id of a request.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware propagates the caller's request id, or assigns a new
// one, and stores it in the request context for logging.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}
