package middleware

import (
	"context"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// TunnelIDHeader carries the id the tunnel assigned to a request.
const TunnelIDHeader = "X-Uxas-Tunnel-ID"

// RequestID injects a request ID into the context of each request. A client
// supplied X-Request-Id is kept, otherwise a UUID is generated.
func RequestID(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(chimiddleware.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), chimiddleware.RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

// RequestIDHeader echoes the request ID in the response.
func RequestIDHeader(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if requestID := chimiddleware.GetReqID(r.Context()); requestID != "" {
			w.Header().Set(TunnelIDHeader, requestID)
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
