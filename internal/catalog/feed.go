package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// request token of the inventory server's bulk-export protocol
const feedRequest = "ARTICLEWEB\n"

// TransportError marks network-level sync failures; the whole refresh aborts
// with no catalog change when one occurs.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("inventory feed %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// FeedClient speaks the ARTICLEWEB protocol: connect, send the request token,
// then read until the peer closes or a read times out. The server ends its
// response by going quiet rather than by any framing, so a per-read timeout
// is treated as end-of-response, not as a failure.
type FeedClient struct {
	Addr        string
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

func NewFeedClient(addr string) *FeedClient {
	return &FeedClient{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	}
}

// Fetch returns the raw response text, with undecodable bytes replaced.
func (c *FeedClient) Fetch(ctx context.Context) (string, error) {
	d := net.Dialer{Timeout: c.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return "", &TransportError{Op: "connect " + c.Addr, Err: err}
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(feedRequest)); err != nil {
		return "", &TransportError{Op: "send request", Err: err}
	}

	var sb strings.Builder
	buf := make([]byte, 1024)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
		n, err := conn.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if err != nil {
			var ne net.Error
			if errors.Is(err, io.EOF) || (errors.As(err, &ne) && ne.Timeout()) {
				break
			}
			return "", &TransportError{Op: "read response", Err: err}
		}
	}
	return strings.ToValidUTF8(sb.String(), "�"), nil
}
