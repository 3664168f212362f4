package uxastunnel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/socheatsok78/uxastunnel/bridge"
	"github.com/socheatsok78/uxastunnel/envelope"
	"github.com/socheatsok78/uxastunnel/metrics"
	"github.com/urfave/cli/v3"
)

var (
	Name                  = "uxastunnel"
	Version               = "dev"
	HttpHeaderUserAgent   = Name + "/" + Version
	HttpHeaderContentType = "application/x-uxas-envelope"
)

type Tunnel struct {
	ListenAddress            string
	TunnelURLPath            string
	BridgeAddress            string
	LoggingLevel             string
	SentryDSN                string
	AccessControlAllowOrigin []string
	AllowedContentTypes      []string
	ShutdownTimeout          time.Duration
}

// Tunnel configuration bound to the command line flags.
var tunnel = &Tunnel{}

func Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := cli.Command{
		Name:    Name,
		Usage:   "An HTTP tunnel to a UxAS TCP bridge",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "listen-addr",
				Usage:       "The address to listen on",
				Value:       ":8080",
				Sources:     cli.EnvVars("UXASTUNNEL_LISTEN_ADDR"),
				Destination: &tunnel.ListenAddress,
			},
			&cli.StringFlag{
				Name:        "tunnel-path",
				Usage:       "The URL path for the tunnel to process the requests",
				Value:       "/tunnel",
				Sources:     cli.EnvVars("UXASTUNNEL_TUNNEL_PATH"),
				Destination: &tunnel.TunnelURLPath,
			},
			&cli.StringFlag{
				Name:        "bridge-addr",
				Usage:       "The address of the UxAS TCP bridge",
				Value:       "127.0.0.1:5555",
				Sources:     cli.EnvVars("UXASTUNNEL_BRIDGE_ADDR"),
				Destination: &tunnel.BridgeAddress,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Set the log level (debug, info, warn, error)",
				Value:       "info",
				Sources:     cli.EnvVars("UXASTUNNEL_LOG_LEVEL"),
				Destination: &tunnel.LoggingLevel,
			},
			&cli.StringFlag{
				Name:        "sentry-dsn",
				Usage:       "Report panics and bridge errors to this Sentry DSN",
				Sources:     cli.EnvVars("UXASTUNNEL_SENTRY_DSN"),
				Destination: &tunnel.SentryDSN,
			},
			&cli.DurationFlag{
				Name:        "shutdown-timeout",
				Usage:       "How long to wait for in-flight requests on shutdown",
				Value:       10 * time.Second,
				Destination: &tunnel.ShutdownTimeout,
			},
			&cli.StringSliceFlag{
				Name:        "allowed-origin",
				Usage:       "A list of origins that are allowed to access the tunnel. e.g. https://example.com",
				Destination: &tunnel.AccessControlAllowOrigin,
			},
			&cli.StringSliceFlag{
				Name:        "allowed-content-type",
				Usage:       "Only forward envelopes with these content types (default: all)",
				Destination: &tunnel.AllowedContentTypes,
				Validator: func(s []string) error {
					for _, ct := range s {
						if err := validContentType(ct); err != nil {
							return err
						}
					}
					return nil
				},
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error { return action(ctx, c) },
	}

	return cmd.Run(ctx, os.Args)
}

func validContentType(ct string) error {
	var a envelope.Attributes
	a.SetContentType(ct)
	if ct == "" || a.Validate() != nil {
		return fmt.Errorf("invalid content type: %q", ct)
	}
	return nil
}

func action(ctx context.Context, _ *cli.Command) error {
	logger, err := NewLogger(os.Stdout, tunnel.LoggingLevel)
	if err != nil {
		return err
	}

	if tunnel.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:     tunnel.SentryDSN,
			Release: HttpHeaderUserAgent,
		}); err != nil {
			return fmt.Errorf("sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	client, err := bridge.Dial(ctx, tunnel.BridgeAddress)
	if err != nil {
		return err
	}
	level.Info(logger).Log("msg", "connected to bridge", "addr", client.RemoteAddr())

	srv := &http.Server{
		Addr:    tunnel.ListenAddress,
		Handler: NewRouter(tunnel, client, logger, prometheus.DefaultRegisterer),
	}

	var g run.Group
	{
		g.Add(func() error {
			level.Info(logger).Log("msg", "starting server", "addr", tunnel.ListenAddress)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(error) {
			ctx, cancel := context.WithTimeout(context.Background(), tunnel.ShutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(ctx)
		})
	}
	{
		g.Add(func() error {
			return ReceiveLoop(client, logger)
		}, func(error) {
			_ = client.Close()
		})
	}
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) {
		level.Info(logger).Log("msg", "shutting down", "signal", sig.Signal)
		return nil
	}
	return err
}

// ReceiveLoop logs every envelope the bridge sends back until the connection
// closes. Frames that do not hold an envelope are counted and skipped.
func ReceiveLoop(client *bridge.Client, logger log.Logger) error {
	for {
		e, err := client.Receive()
		switch {
		case errors.Is(err, envelope.ErrMalformedEnvelope):
			metrics.UxasEnvelopeReceiveErrorCounter.Inc()
			level.Warn(logger).Log("msg", "dropping malformed envelope from bridge", "err", err)
			continue
		case errors.Is(err, net.ErrClosed):
			return nil
		case errors.Is(err, io.EOF):
			return errors.New("bridge: connection closed by peer")
		case err != nil:
			sentry.CaptureException(err)
			return fmt.Errorf("bridge: receive: %w", err)
		}

		metrics.UxasEnvelopeReceivedCounter.Inc()
		level.Debug(logger).Log("msg", "received envelope from bridge", "envelope", e, "payload_size", len(e.Payload()))
	}
}
