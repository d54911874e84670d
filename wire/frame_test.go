package wire_test

import (
	"bytes"
	"net"
	"sync"
	"testing"

	"github.com/picodegallo/gallo/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// packetPipe is an in-memory PacketConn preserving packet boundaries the
// way a USB bulk endpoint does.
type packetPipe struct {
	in  <-chan []byte
	out chan<- []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// newPacketPipe returns two connected packet conns.
func newPacketPipe() (a, b wire.PacketConn) {
	ab := make(chan []byte, 256)
	ba := make(chan []byte, 256)
	closed := make(chan struct{})
	return &packetPipe{in: ba, out: ab, closed: closed},
		&packetPipe{in: ab, out: ba, closed: closed}
}

func (p *packetPipe) ReadPacket(buf []byte) (int, error) {
	select {
	case pkt := <-p.in:
		return copy(buf, pkt), nil
	case <-p.closed:
		return 0, net.ErrClosed
	}
}

func (p *packetPipe) WritePacket(pkt []byte) error {
	select {
	case <-p.closed:
		return net.ErrClosed
	default:
	}
	p.out <- append([]byte(nil), pkt...)
	return nil
}

func (p *packetPipe) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

func roundTripMessage(t *testing.T, msg []byte) []byte {
	t.Helper()
	a, b := newPacketPipe()
	require.NoError(t, wire.WriteMessage(a, msg))
	var buf [wire.MaxMessageSize]byte
	n, err := wire.ReadMessage(b, buf[:])
	require.NoError(t, err)
	return buf[:n]
}

func TestMessageRoundTrip(t *testing.T) {
	lengths := []int{0, 1, 63, 64, 65, 128, 200, wire.MaxMessageSize}
	for _, n := range lengths {
		msg := bytes.Repeat([]byte{0x5a}, n)
		got := roundTripMessage(t, msg)
		assert.Len(t, got, n, "length %d", n)
		assert.Equal(t, msg, got)
	}
}

// A message that is an exact multiple of the packet size must be
// followed by an explicit zero-length packet, otherwise the reader
// would block waiting for a terminator.
func TestExactMultipleGetsZeroLengthTerminator(t *testing.T) {
	a, b := newPacketPipe()
	msg := bytes.Repeat([]byte{1}, wire.MaxPacketSize*2)
	require.NoError(t, wire.WriteMessage(a, msg))

	var pkt [wire.MaxPacketSize]byte
	for i := 0; i < 2; i++ {
		n, err := b.ReadPacket(pkt[:])
		require.NoError(t, err)
		assert.Equal(t, wire.MaxPacketSize, n)
	}
	n, err := b.ReadPacket(pkt[:])
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOversizeMessageDrainedAndRejected(t *testing.T) {
	a, b := newPacketPipe()
	require.NoError(t, wire.WriteMessage(a, bytes.Repeat([]byte{2}, 300)))
	require.NoError(t, wire.WriteMessage(a, []byte{0xaa, 0xbb}))

	small := make([]byte, 128)
	_, err := wire.ReadMessage(b, small)
	assert.ErrorIs(t, err, wire.ErrMessageTooLarge)

	// The oversize message was drained in full; the next one is intact.
	n, err := wire.ReadMessage(b, small)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb}, small[:n])
}

func TestFrameSplit(t *testing.T) {
	frame := wire.AppendFrame(nil, 0xdeadbeef, []byte{9, 8, 7})
	assert.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde, 9, 8, 7}, frame)

	key, body, err := wire.SplitFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), key)
	assert.Equal(t, []byte{9, 8, 7}, body)

	// Bare key, empty body.
	key, body, err = wire.SplitFrame(wire.AppendFrame(nil, 7, nil))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), key)
	assert.Empty(t, body)

	_, _, err = wire.SplitFrame([]byte{1, 2})
	assert.Error(t, err)
}

func TestStreamConnRoundTrip(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	host := wire.NewStreamConn(hostEnd)
	dev := wire.NewStreamConn(devEnd)
	defer host.Close()
	defer dev.Close()

	msg := bytes.Repeat([]byte{0x33}, 150)
	done := make(chan error, 1)
	go func() { done <- wire.WriteMessage(host, msg) }()

	var buf [wire.MaxMessageSize]byte
	n, err := wire.ReadMessage(dev, buf[:])
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, msg, buf[:n])
}

func TestStreamConnRejectsOversizePacket(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	host := wire.NewStreamConn(hostEnd)
	defer host.Close()
	defer devEnd.Close()

	err := host.WritePacket(make([]byte, wire.MaxPacketSize+1))
	assert.Error(t, err)
}
