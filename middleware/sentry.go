package middleware

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
)

var sentryHandler = sentryhttp.New(sentryhttp.Options{
	// Repanic so that chi's Recoverer still writes the 500 response
	Repanic: true,
})

// SentryRecoverer attaches a Sentry hub to each request and reports panics.
// It is a no-op sink until sentry.Init is called.
//
// It must come after middleware.Recoverer:
//
//	r.Use(middleware.Recoverer)
//	r.Use(SentryRecoverer)
func SentryRecoverer(next http.Handler) http.Handler {
	return sentryHandler.Handle(next)
}
