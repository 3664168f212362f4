package uxastunnel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/chi-middleware/proxy"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpmetrics "github.com/slok/go-http-metrics/metrics/prometheus"
	httpmiddleware "github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"
	"github.com/socheatsok78/uxastunnel/envelope"
	"github.com/socheatsok78/uxastunnel/metrics"
	"github.com/socheatsok78/uxastunnel/middleware"
)

// MaxEnvelopeSize bounds the request body accepted by the tunnel.
const MaxEnvelopeSize = 16 << 20

// Forwarder delivers an encoded envelope to the bridge.
type Forwarder interface {
	SendFrame(frame []byte) error
}

type contextKey string

const (
	contextKeyID       contextKey = "id"
	contextKeyFrame    contextKey = "frame"
	contextKeyEnvelope contextKey = "envelope"
)

// NewRouter builds the tunnel HTTP handler. HTTP metrics are registered with
// reg; promhttp serves the default gatherer.
func NewRouter(t *Tunnel, fwd Forwarder, logger log.Logger, reg prometheus.Registerer) http.Handler {
	mdlw := httpmiddleware.New(httpmiddleware.Config{
		Recorder: httpmetrics.NewRecorder(httpmetrics.Config{Registry: reg}),
	})

	r := chi.NewRouter()

	r.Use(proxy.ForwardedHeaders())
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestIDHeader)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SentryRecoverer)
	r.Use(TunnelMiddleware)

	// CORS
	if len(t.AccessControlAllowOrigin) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: t.AccessControlAllowOrigin,
			AllowedMethods: []string{http.MethodPost},
		}))
	}

	// Heartbeat
	r.Use(chimiddleware.Heartbeat("/heartbeat"))

	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("welcome"))
	})

	path := t.TunnelURLPath
	if path == "" {
		path = "/tunnel"
	}
	r.Route(path, func(r chi.Router) {
		r.Use(std.HandlerProvider(path, mdlw))
		TunnelRoutes(r, t, fwd, logger)
	})

	return r
}

func TunnelRoutes(r chi.Router, t *Tunnel, fwd Forwarder, logger log.Logger) {
	r.Use(TunnelContextHandler(t, logger))

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		id := r.Context().Value(contextKeyID).(string)
		frame := r.Context().Value(contextKeyFrame).([]byte)
		e := r.Context().Value(contextKeyEnvelope).(*envelope.Envelope)

		// Forward the frame as received; it already parsed as an envelope.
		level.Debug(logger).Log("id", id, "msg", "forwarding envelope to bridge", "envelope", e)
		if err := fwd.SendFrame(frame); err != nil {
			metrics.UxasEnvelopeForwardErrorCounter.Inc()
			level.Error(logger).Log("id", id, "msg", "error forwarding envelope", "err", err)
			if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
				hub.CaptureException(err)
			}
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		metrics.UxasEnvelopeForwardSuccessCounter.Inc()
		level.Info(logger).Log("id", id, "msg", "forwarded envelope", "address", e.Address(), "descriptor", e.Attributes().Descriptor())

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			Status   string             `json:"status"`
			ID       string             `json:"id"`
			Envelope *envelope.Envelope `json:"envelope"`
		}{"ok", id, e})
	})
}

// TunnelContextHandler reads and parses the envelope in the request body and
// stores it in the request context.
func TunnelContextHandler(t *Tunnel, logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
				return
			}

			id := chimiddleware.GetReqID(r.Context())
			level.Debug(logger).Log("id", id, "msg", "received request", "method", r.Method, "url", r.URL.String())

			// Read the envelope from the request body
			frame, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxEnvelopeSize))
			if err != nil {
				status := http.StatusBadRequest
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					status = http.StatusRequestEntityTooLarge
				}
				http.Error(w, err.Error(), status)
				level.Error(logger).Log("id", id, "msg", "error reading request body", "err", err)
				return
			}

			// Parse the envelope
			e, err := envelope.Parse(frame)
			if err != nil {
				metrics.UxasEnvelopeRejectedCounter.Inc()
				http.Error(w, err.Error(), http.StatusBadRequest)
				level.Warn(logger).Log("id", id, "msg", "error parsing envelope", "err", err)
				return
			}

			if len(t.AllowedContentTypes) > 0 && !slices.Contains(t.AllowedContentTypes, e.Attributes().ContentType()) {
				metrics.UxasEnvelopeRejectedCounter.Inc()
				http.Error(w, "content type not allowed", http.StatusForbidden)
				level.Warn(logger).Log("id", id, "msg", "content type not allowed", "content_type", e.Attributes().ContentType())
				return
			}
			metrics.UxasEnvelopeAcceptedCounter.Inc()

			ctx := r.Context()
			ctx = context.WithValue(ctx, contextKeyID, id)
			ctx = context.WithValue(ctx, contextKeyFrame, frame)
			ctx = context.WithValue(ctx, contextKeyEnvelope, e)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
