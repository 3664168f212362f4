package bridge_test

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/socheatsok78/uxastunnel/bridge"
	"github.com/socheatsok78/uxastunnel/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnvelope() *envelope.Envelope {
	e := envelope.New()
	e.SetAddress("uxas.messages.task.UniqueAutomationRequest")
	e.SetContentType(envelope.ContentTypeLMCP)
	e.SetDescriptor("uxas.messages.task.UniqueAutomationRequest")
	e.SetSenderGroup("fusion")
	e.SetSenderEntityID("400")
	e.SetSenderServiceID("7")
	e.SetPayload([]byte("LMCP\x00\x01$payload$"))
	return e
}

func TestClientSendReceive(t *testing.T) {
	a, b := net.Pipe()
	sender := bridge.NewClient(a)
	receiver := bridge.NewClient(b)
	defer sender.Close()
	defer receiver.Close()

	in := testEnvelope()
	errc := make(chan error, 1)
	go func() { errc <- sender.Send(in) }()

	out, err := receiver.Receive()
	require.NoError(t, err)
	require.NoError(t, <-errc)
	assert.True(t, in.Equal(out), "got %s", out)
}

func TestClientReceiveMalformedEnvelope(t *testing.T) {
	a, b := net.Pipe()
	sender := bridge.NewClient(a)
	receiver := bridge.NewClient(b)
	defer receiver.Close()

	go func() {
		_ = sender.SendFrame([]byte("only$one delimiter"))
		_ = sender.Send(testEnvelope())
		_ = sender.Close()
	}()

	_, err := receiver.Receive()
	assert.ErrorIs(t, err, envelope.ErrMalformedEnvelope)

	// The stream is still in sync after a bad envelope.
	out, err := receiver.Receive()
	require.NoError(t, err)
	assert.Equal(t, "fusion", out.Attributes().SenderGroup())

	_, err = receiver.Receive()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan *envelope.Envelope, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(done)
			return
		}
		server := bridge.NewClient(conn)
		defer server.Close()
		e, err := server.Receive()
		if err != nil {
			close(done)
			return
		}
		done <- e
	}()

	c, err := bridge.Dial(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Send(testEnvelope()))

	got, ok := <-done
	require.True(t, ok)
	assert.True(t, testEnvelope().Equal(got))
}
