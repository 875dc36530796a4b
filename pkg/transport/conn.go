package transport

import (
	"context"
	"net"
	"sync"

	"github.com/pion/logging"
)

// Conn is a single framed TCP connection to a device. It owns the
// request sequence counter, the session key installed after a
// successful handshake, and the receive buffer that DecodeFrames
// consumes incrementally as bytes arrive.
type Conn struct {
	conn net.Conn
	log  logging.LeveledLogger

	mu             sync.Mutex
	requestCounter uint16
	recvBuf        []byte
	tcpKey         []byte
}

// Dial opens a TCP connection to addr (host:port).
func Dial(ctx context.Context, addr string, loggerFactory logging.LoggerFactory) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewConn(nc, loggerFactory), nil
}

// NewConn wraps an already-established connection (a real socket, or a
// Pipe endpoint in tests).
func NewConn(nc net.Conn, loggerFactory logging.LoggerFactory) *Conn {
	c := &Conn{conn: nc}
	if loggerFactory != nil {
		c.log = loggerFactory.NewLogger("transport")
	}
	return c
}

// SetKey installs the session key frames are encrypted and signed under,
// and resets the request counter to 0. Called once after a successful
// handshake.
func (c *Conn) SetKey(tcpKey []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tcpKey = append([]byte(nil), tcpKey...)
	c.requestCounter = 0
}

// Send frames payload as msgType, under the current request counter and
// session key, and writes it to the connection.
func (c *Conn) Send(payload []byte, msgType MsgType) error {
	c.mu.Lock()
	counter := c.requestCounter
	key := c.tcpKey
	c.mu.Unlock()

	frame, next, err := EncodeFrame(payload, msgType, counter, key)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.requestCounter = next
	c.mu.Unlock()

	if c.log != nil {
		c.log.Debugf("sent frame type=%d counter=%d len=%d", msgType, counter, len(payload))
	}

	_, err = c.conn.Write(frame)
	return err
}

// Recv performs one blocking read on the underlying socket and returns
// every frame the newly accumulated buffer yields. A non-nil error is
// always fatal: the caller must close the connection and tear down the
// session.
func (c *Conn) Recv() ([]Frame, error) {
	readBuf := make([]byte, 4096)
	n, err := c.conn.Read(readBuf)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.recvBuf = append(c.recvBuf, readBuf[:n]...)
	pending := c.recvBuf
	key := c.tcpKey
	c.mu.Unlock()

	frames, leftover, decodeErr := DecodeFrames(pending, key)

	c.mu.Lock()
	c.recvBuf = leftover
	c.mu.Unlock()

	return frames, decodeErr
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the address of the peer.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
