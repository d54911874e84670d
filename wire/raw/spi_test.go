package raw_test

import (
	"net"
	"testing"

	"github.com/picodegallo/gallo/bridge/simbus"
	"github.com/picodegallo/gallo/bus"
	"github.com/picodegallo/gallo/wire"
	"github.com/picodegallo/gallo/wire/raw"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSpiServer(t *testing.T, spi *simbus.Spi) *raw.SpiConn {
	t.Helper()
	hostEnd, devEnd := net.Pipe()
	go func() { _ = raw.ServeSpi(wire.NewStreamConn(devEnd), spi) }()
	t.Cleanup(func() {
		hostEnd.Close()
		devEnd.Close()
	})
	return raw.NewSpiConn(wire.NewStreamConn(hostEnd))
}

func TestSpiWriteReadFlush(t *testing.T) {
	sim := simbus.NewSpi()
	sim.QueueResponse([]byte{0x10, 0x20})
	conn := startSpiServer(t, sim)

	require.NoError(t, conn.BlockingWrite([]byte{0xa5}))
	assert.Equal(t, []byte{0xa5}, sim.Written())

	buf := make([]byte, 3)
	require.NoError(t, conn.BlockingRead(buf))
	assert.Equal(t, []byte{0x10, 0x20, 0xff}, buf)

	require.NoError(t, conn.Flush())
	assert.Equal(t, 1, sim.Flushes())
}

func TestSpiTransfer(t *testing.T) {
	sim := simbus.NewSpi()
	sim.QueueResponse([]byte{0xef})
	conn := startSpiServer(t, sim)

	buf := make([]byte, 1)
	require.NoError(t, conn.BlockingTransfer([]byte{0x9f, 0x00}, buf))
	assert.Equal(t, []byte{0x9f, 0x00}, sim.Written())
	assert.Equal(t, []byte{0xef}, buf)
}

func TestSpiFailureStatus(t *testing.T) {
	sim := simbus.NewSpi()
	kind := bus.TxNotEmpty
	sim.FailWith = &kind
	conn := startSpiServer(t, sim)

	err := conn.BlockingWrite([]byte{1})
	var be *bus.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, bus.TxNotEmpty, be.Kind)
}
