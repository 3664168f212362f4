package bridge

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/socheatsok78/uxastunnel/envelope"
)

// Client exchanges envelopes with a UxAS TCP bridge. Send is safe for
// concurrent use; Receive must be driven by a single goroutine.
type Client struct {
	conn    net.Conn
	scanner *Scanner

	mu sync.Mutex
}

// Dial connects to the bridge at addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w", addr, err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn:    conn,
		scanner: NewScanner(conn),
	}
}

// Send encodes e and writes it as one frame.
func (c *Client) Send(e *envelope.Envelope) error {
	return c.SendFrame(e.Bytes())
}

// SendFrame writes an already encoded envelope as one frame.
func (c *Client) SendFrame(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WriteFrame(c.conn, frame)
}

// Receive blocks until the next frame arrives and decodes it. It returns
// io.EOF when the bridge closes the connection cleanly. A frame that does not
// hold a valid envelope is reported with the envelope error; the stream stays
// usable.
func (c *Client) Receive() (*envelope.Envelope, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return envelope.Parse(c.scanner.Frame())
}

func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *Client) Close() error {
	return c.conn.Close()
}
