// Package transport implements the HSMS Primitive Services (spec.md
// §4.3): owning the TCP endpoint, running a dedicated receive loop that
// parses frames into pkg/message.Message values and delivers them on a
// channel, and offering a synchronous transmit operation.
package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wolimst/lib-secs2-hsms-go/internal/xlog"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/message"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/metrics"
)

// Mode selects which side of the TCP handshake a Client plays.
type Mode int

const (
	// Active dials the remote entity and waits up to T5 for the
	// connection to complete.
	Active Mode = iota
	// Passive listens for and accepts a connection from the remote
	// entity.
	Passive
)

// ConnectionState is the Primitive Services' connection state (spec.md
// §3, §4.3).
type ConnectionState int

const (
	NotConnected ConnectionState = iota
	connecting                  // internal: Connect in flight, blocks re-entrant Connect calls
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case NotConnected:
		return "not_connected"
	case Connected:
		return "connected"
	default:
		return "connecting"
	}
}

// Error is the transport error kind, per spec.md §7.
type Error struct {
	Kind string
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("transport: %s: %s", e.Kind, e.Msg) }

// Error kinds.
const (
	ErrNotConnected      = "not_connected"
	ErrAlreadyExists     = "already_exists"
	ErrAddrNotAvailable  = "addr_not_available"
	ErrTimeout           = "timeout"
	ErrConnectionAborted = "connection_aborted"
)

func errOf(kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// DefaultMaxFrameSize bounds the body length SplitLength will accept
// when no explicit limit is configured.
const DefaultMaxFrameSize = 1 << 20 // 1 MiB

// Client owns a single TCP endpoint's HSMS Primitive Services. The zero
// value is not ready to use; construct with NewClient.
type Client struct {
	mu           stateLock
	conn         net.Conn
	listener     net.Listener
	t8           time.Duration
	maxFrameSize uint32
	log          *logrus.Entry
}

// NewClient creates a Client in the NotConnected state, ready for
// Connect. maxFrameSize of 0 uses DefaultMaxFrameSize.
func NewClient(maxFrameSize uint32) *Client {
	if maxFrameSize == 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Client{
		maxFrameSize: maxFrameSize,
		log:          logrus.WithField("component", "transport"),
	}
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	return c.mu.load()
}

// Connect establishes the TCP connection per spec.md §4.3: Passive binds
// and accepts on endpoint; Active dials endpoint with a T5 timeout. On
// success it sets the socket's read/write timeout to t8, spawns the
// receive loop, and returns the peer address and the channel the loop
// delivers parsed messages on. The channel is closed when the receive
// loop exits (fatal read error, or Disconnect).
func (c *Client) Connect(endpoint string, mode Mode, t5, t8 time.Duration) (net.Addr, <-chan message.Message, error) {
	if !c.mu.transition(NotConnected, connecting) {
		return nil, nil, errOf(ErrAlreadyExists, "client is not in NotConnected state")
	}

	conn, listener, err := dial(endpoint, mode, t5)
	if err != nil {
		c.mu.store(NotConnected)
		return nil, nil, err
	}

	out := make(chan message.Message, 16)
	c.conn = conn
	c.listener = listener
	c.t8 = t8
	c.mu.store(Connected)

	c.log.WithFields(xlog.Conn(endpoint)).Info("connected")
	go c.receiveLoop(conn, out)

	return conn.RemoteAddr(), out, nil
}

func dial(endpoint string, mode Mode, t5 time.Duration) (net.Conn, net.Listener, error) {
	switch mode {
	case Passive:
		ln, err := net.Listen("tcp", endpoint)
		if err != nil {
			return nil, nil, errOf(ErrAddrNotAvailable, "listen on %s: %v", endpoint, err)
		}
		conn, err := ln.Accept()
		if err != nil {
			ln.Close()
			return nil, nil, errOf(ErrTimeout, "accept on %s: %v", endpoint, err)
		}
		return conn, ln, nil
	case Active:
		conn, err := net.DialTimeout("tcp", endpoint, t5)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil, nil, errOf(ErrTimeout, "dial %s: %v", endpoint, err)
			}
			return nil, nil, errOf(ErrAddrNotAvailable, "dial %s: %v", endpoint, err)
		}
		return conn, nil, nil
	default:
		return nil, nil, errOf(ErrAddrNotAvailable, "unknown connection mode %v", mode)
	}
}

// Transmit serializes and writes msg to the socket. On any write error
// the client transitions to NotConnected and the error is
// ConnectionAborted.
func (c *Client) Transmit(m message.Message) error {
	if c.mu.load() != Connected {
		return errOf(ErrNotConnected, "transmit requires Connected state")
	}
	conn := c.conn
	conn.SetWriteDeadline(time.Now().Add(c.t8))
	_, err := conn.Write(m.Encode())
	if err != nil {
		c.abort("write_failed")
		return errOf(ErrConnectionAborted, "write failed: %v", err)
	}
	metrics.FramesSent.Inc()
	return nil
}

// Disconnect shuts down both halves of the TCP connection and
// transitions to NotConnected. Idempotent: a call while already
// NotConnected returns a NotConnected error without side effects.
func (c *Client) Disconnect() error {
	if !c.mu.transition(Connected, NotConnected) {
		return errOf(ErrNotConnected, "already not connected")
	}
	c.teardown()
	metrics.Disconnects.WithLabelValues("local").Inc()
	c.log.Info("disconnected")
	return nil
}

// abort is the internal, trigger-labeled counterpart to Disconnect used
// when the transport itself detects a fatal condition (write failure,
// receive loop exit).
func (c *Client) abort(trigger string) {
	if !c.mu.transition(Connected, NotConnected) {
		return
	}
	c.teardown()
	metrics.Disconnects.WithLabelValues(trigger).Inc()
	c.log.WithField("trigger", trigger).Warn("connection aborted")
}

func (c *Client) teardown() {
	if c.conn != nil {
		c.conn.Close()
	}
	if c.listener != nil {
		c.listener.Close()
	}
}

var errTick = fmt.Errorf("transport: recoverable read tick")

// readFull reads exactly len(buf) bytes from conn, resetting the T8
// deadline before each underlying read. A read that times out before any
// byte of this call has arrived is a recoverable tick: readFull retries
// it rather than failing. A read that times out, or otherwise errors,
// after at least one byte of this call has arrived is fatal.
func readFull(conn net.Conn, buf []byte, t8 time.Duration) error {
	total := 0
	for total < len(buf) {
		conn.SetReadDeadline(time.Now().Add(t8))
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			if total == 0 {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					continue
				}
			}
			return err
		}
	}
	return nil
}

// receiveLoop is the dedicated goroutine described in spec.md §4.3. It
// runs until a fatal read error, pushing parsed messages to out. The
// transport layer never calls back into session logic directly; it only
// ever writes to this channel, which is how the weak-reference cycle
// described in spec.md §9 is avoided in Go.
func (c *Client) receiveLoop(conn net.Conn, out chan<- message.Message) {
	defer close(out)
	lengthBuf := make([]byte, 4)
	for {
		if err := readFull(conn, lengthBuf, c.t8); err != nil {
			c.log.WithError(err).Debug("receive loop: length read failed")
			c.abort("read_failed")
			return
		}

		length, err := message.SplitLength(lengthBuf, c.maxFrameSize)
		if err != nil {
			c.log.WithError(err).Warn("receive loop: invalid frame length")
			c.abort("invalid_frame")
			return
		}

		body := make([]byte, length)
		if err := readFull(conn, body, c.t8); err != nil {
			c.log.WithError(err).Debug("receive loop: body read failed")
			c.abort("read_failed")
			return
		}

		frame := append(lengthBuf[:4:4], body...)
		msg, err := message.DecodeFrame(frame)
		if err != nil {
			c.log.WithError(err).Warn("receive loop: frame decode failed")
			c.abort("invalid_frame")
			return
		}

		metrics.FramesReceived.Inc()
		out <- msg
	}
}
