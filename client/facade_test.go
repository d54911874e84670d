package client_test

import (
	"context"
	"net"
	"testing"

	"github.com/picodegallo/gallo/bridge"
	"github.com/picodegallo/gallo/bridge/simbus"
	"github.com/picodegallo/gallo/client"
	"github.com/picodegallo/gallo/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialSim connects a client to a dispatcher over simulated buses.
func dialSim(t *testing.T) (*client.Client, *simbus.I2c, *simbus.Spi, *simbus.Gpio) {
	t.Helper()
	i2c, spi, gpio := simbus.NewI2c(), simbus.NewSpi(), simbus.NewGpio()
	d := bridge.New(i2c, spi, gpio)

	hostEnd, devEnd := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.Serve(ctx, wire.NewStreamConn(devEnd)) }()

	c := client.New(client.NewPacketTransport(wire.NewStreamConn(hostEnd)))
	t.Cleanup(func() {
		c.Close()
		cancel()
		devEnd.Close()
	})
	return c, i2c, spi, gpio
}

func TestI2cPortWriteRead(t *testing.T) {
	c, i2c, _, _ := dialSim(t)
	i2c.AddDevice(0x68, map[uint8][]byte{0x75: {0x71}})

	port := c.I2c()
	whoami, err := port.WriteRead(context.Background(), 0x68, []byte{0x75}, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x71}, whoami)
}

func TestSpiPortWriteRead(t *testing.T) {
	c, _, spi, _ := dialSim(t)
	spi.QueueResponse([]byte{0x9f})

	port := c.Spi()
	ctx := context.Background()
	data, err := port.WriteRead(ctx, []byte{0x9f, 0x00}, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x9f}, data)
	assert.Equal(t, []byte{0x9f, 0x00}, spi.Written())
	require.NoError(t, port.Flush(ctx))
}

func TestGpioPortPinView(t *testing.T) {
	c, _, _, gpio := dialSim(t)
	ctx := context.Background()

	pin := c.Gpio(4)
	require.NoError(t, pin.Put(ctx, wire.High))
	st, err := pin.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, wire.High, st)
	assert.Equal(t, "input", gpio.Direction(4))
	require.NoError(t, pin.WaitForHigh(ctx))
}

// Several views over one client stay serialized by the client's lock;
// interleaved calls from different views cannot corrupt each other.
func TestViewsSerializeOverOneConnection(t *testing.T) {
	c, i2c, spi, _ := dialSim(t)
	i2c.AddDevice(0x20, map[uint8][]byte{0x00: {0x55}})

	done := make(chan error, 2)
	go func() {
		for i := 0; i < 20; i++ {
			if _, err := c.I2c().Read(context.Background(), 0x20, 1); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	go func() {
		for i := 0; i < 20; i++ {
			if err := c.Spi().Write(context.Background(), []byte{byte(i)}); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	require.NoError(t, <-done)
	require.NoError(t, <-done)
	assert.Len(t, spi.Written(), 20)
}
