package client

import (
	"context"
	"net"
	"sync"

	"github.com/picodegallo/gallo/internal/log"
	"github.com/picodegallo/gallo/wire"
)

// Transport carries one request frame to the device and returns the
// matching response frame. The protocol has no request multiplexing, so
// a Transport only ever has one exchange in flight; the Client's lock
// enforces that.
type Transport interface {
	// Exchange sends req and blocks for the response. The returned
	// slice is only valid until the next call.
	Exchange(ctx context.Context, req []byte) ([]byte, error)
	// Close tears the connection down. Safe to call more than once.
	Close() error
	// Closed is closed once the connection is gone, whether by Close or
	// by the device disappearing. Long-lived polling loops select on it
	// to exit promptly instead of retrying against a dead connection.
	Closed() <-chan struct{}
}

// PacketTransport runs the message framing over any PacketConn: the
// gousb bulk endpoint pair in production, a stream adapter for the dev
// server, an in-memory pipe in tests.
type PacketTransport struct {
	conn wire.PacketConn
	raw  log.RawLogger

	closeOnce sync.Once
	closed    chan struct{}

	buf [wire.MaxMessageSize]byte
}

// NewPacketTransport wraps an open packet connection.
func NewPacketTransport(conn wire.PacketConn) *PacketTransport {
	return &PacketTransport{conn: conn, raw: log.NewRaw(nil), closed: make(chan struct{})}
}

// SetRawLogger enables hex tracing of frames in both directions.
func (t *PacketTransport) SetRawLogger(rl log.RawLogger) { t.raw = rl }

// Exchange implements Transport. Cancelling ctx closes the connection:
// the wire protocol has no in-band cancellation, so the only way to
// abandon an outstanding request is to abandon the connection with it.
func (t *PacketTransport) Exchange(ctx context.Context, req []byte) ([]byte, error) {
	select {
	case <-t.closed:
		return nil, ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = t.Close()
		case <-watchDone:
		}
	}()

	t.raw.Log(true, req)
	if err := wire.WriteMessage(t.conn, req); err != nil {
		_ = t.Close()
		return nil, err
	}
	n, err := wire.ReadMessage(t.conn, t.buf[:])
	if err != nil {
		_ = t.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	t.raw.Log(false, t.buf[:n])
	return t.buf[:n], nil
}

// Close implements Transport.
func (t *PacketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		err = t.conn.Close()
	})
	return err
}

// Closed implements Transport.
func (t *PacketTransport) Closed() <-chan struct{} { return t.closed }

// DialTransport connects to a bridge dev server over TCP.
func DialTransport(addr string) (*PacketTransport, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
	return NewPacketTransport(wire.NewStreamConn(conn)), nil
}

// mockTransport returns canned response frames without a device.
type mockTransport struct {
	responder func(req []byte) ([]byte, error)
	closed    chan struct{}
	closeOnce sync.Once
}

// NewMockTransport creates a transport that feeds every request frame
// to responder and returns its answer. Test use only.
func NewMockTransport(responder func(req []byte) ([]byte, error)) Transport {
	return &mockTransport{responder: responder, closed: make(chan struct{})}
}

func (m *mockTransport) Exchange(ctx context.Context, req []byte) ([]byte, error) {
	select {
	case <-m.closed:
		return nil, ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.responder(req)
}

func (m *mockTransport) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *mockTransport) Closed() <-chan struct{} { return m.closed }
