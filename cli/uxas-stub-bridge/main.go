package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/socheatsok78/uxastunnel/bridge"
	"github.com/socheatsok78/uxastunnel/envelope"
	"github.com/urfave/cli/v3"
)

func main() {
	var logger log.Logger
	logger = log.NewLogfmtLogger(os.Stdout)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)

	cmd := cli.Command{
		Name:  "uxas-stub-bridge",
		Usage: "A TCP listener that logs envelopes sent to a UxAS bridge",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen-addr",
				Usage: "The address to listen on",
				Value: "127.0.0.1:5555",
			},
			&cli.BoolFlag{
				Name:  "echo",
				Usage: "Send every received envelope back to its sender",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			listenAddr := c.String("listen-addr")

			var lc net.ListenConfig
			ln, err := lc.Listen(ctx, "tcp", listenAddr)
			if err != nil {
				return err
			}
			level.Info(logger).Log("msg", "starting stub bridge", "addr", ln.Addr())

			for {
				conn, err := ln.Accept()
				if err != nil {
					return err
				}
				go serve(bridge.NewClient(conn), c.Bool("echo"), log.With(logger, "peer", conn.RemoteAddr()))
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
	}
}

func serve(c *bridge.Client, echo bool, logger log.Logger) {
	defer c.Close()
	level.Info(logger).Log("msg", "client connected")

	for {
		e, err := c.Receive()
		switch {
		case errors.Is(err, envelope.ErrMalformedEnvelope):
			level.Warn(logger).Log("msg", "malformed envelope", "err", err)
			continue
		case errors.Is(err, io.EOF):
			level.Info(logger).Log("msg", "client disconnected")
			return
		case err != nil:
			level.Error(logger).Log("msg", "error reading frame", "err", err)
			return
		}

		level.Info(logger).Log("msg", "received envelope", "envelope", e, "payload_size", len(e.Payload()))
		if echo {
			if err := c.Send(e); err != nil {
				level.Error(logger).Log("msg", "error echoing envelope", "err", err)
				return
			}
		}
	}
}
