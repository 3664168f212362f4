package uxastunnel

import "net/http"

func TunnelMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", HttpHeaderUserAgent)
		next.ServeHTTP(w, r)
	})
}
