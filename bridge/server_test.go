package bridge_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/picodegallo/gallo/bridge"
	"github.com/picodegallo/gallo/bridge/simbus"
	"github.com/picodegallo/gallo/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) (*bridge.Server, testBuses) {
	t.Helper()
	buses := testBuses{i2c: simbus.NewI2c(), spi: simbus.NewSpi(), gpio: simbus.NewGpio()}
	d := bridge.New(buses.i2c, buses.spi, buses.gpio)
	srv := bridge.NewServer(bridge.ServerConfig{Addr: "127.0.0.1:0"}, d, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()
	select {
	case err := <-errCh:
		t.Fatalf("server exited before ready: %v", err)
	case <-srv.Ready():
	}
	t.Cleanup(func() {
		cancel()
		_ = srv.Close()
		select {
		case <-errCh:
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})
	return srv, buses
}

func TestServerServesTCPClients(t *testing.T) {
	srv, buses := startServer(t)
	buses.i2c.AddDevice(0x48, map[uint8][]byte{0x00: {0x12, 0x34}})

	c, err := client.Dial(srv.Addr())
	require.NoError(t, err)
	defer c.Close()

	echo, err := c.Ping(99)
	require.NoError(t, err)
	assert.Equal(t, uint32(99), echo)

	data, err := c.I2cRead(0x48, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, data)
}

// The device tracks one connection's state, so the server admits
// clients strictly one after another.
func TestServerServesClientsSequentially(t *testing.T) {
	srv, _ := startServer(t)

	first, err := client.Dial(srv.Addr())
	require.NoError(t, err)
	_, err = first.Ping(1)
	require.NoError(t, err)

	// A second client connects at the TCP level but is not serviced
	// until the first goes away.
	second, err := client.Dial(srv.Addr())
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.Close())
	echo, err := second.Ping(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), echo)
}
