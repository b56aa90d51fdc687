package xmpp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/quailyquaily/mucbot/internal/logutil"
)

const defaultReadSize = 4096

type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Transport owns the duplex byte stream to the server. Writes are serialised
// so concurrent command handlers never interleave units on the wire.
type Transport struct {
	Dial     DialFunc
	ReadSize int

	logger *slog.Logger

	mu   sync.Mutex
	conn net.Conn
	wmu  sync.Mutex
}

func NewTransport(logger *slog.Logger) *Transport {
	d := &net.Dialer{}
	return &Transport{
		Dial:     d.DialContext,
		ReadSize: defaultReadSize,
		logger:   logutil.OrDefault(logger),
	}
}

func (t *Transport) Connect(ctx context.Context, host string, port int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := t.Dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("xmpp connect %s: %w", addr, err)
	}
	t.Attach(conn)
	t.logger.Info("xmpp_connected", "addr", addr)
	return nil
}

// Attach adopts an already established connection.
func (t *Transport) Attach(conn net.Conn) {
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
}

func (t *Transport) Connected() bool {
	return t.current() != nil
}

func (t *Transport) current() net.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

// SendRaw writes data in full. It is a no-op when not connected and never
// reports failure to the caller; write errors are logged.
func (t *Transport) SendRaw(data string) {
	conn := t.current()
	if conn == nil {
		return
	}
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if _, err := io.WriteString(conn, data); err != nil {
		t.logger.Warn("xmpp_send_failed", "error", err.Error())
	}
}

// ReceiveChunk blocks until bytes arrive or the peer closes. Any read error
// ends the session and is reported as ErrClosed.
func (t *Transport) ReceiveChunk() ([]byte, error) {
	conn := t.current()
	if conn == nil {
		return nil, ErrNotConnected
	}
	size := t.ReadSize
	if size <= 0 {
		size = defaultReadSize
	}
	buf := make([]byte, size)
	n, err := conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		t.logger.Warn("xmpp_receive_failed", "error", err.Error())
	}
	return nil, fmt.Errorf("%w: %v", ErrClosed, err)
}

func (t *Transport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
