package raw_test

import (
	"errors"
	"net"
	"testing"

	"github.com/picodegallo/gallo/bridge/simbus"
	"github.com/picodegallo/gallo/bus"
	"github.com/picodegallo/gallo/wire"
	"github.com/picodegallo/gallo/wire/raw"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	in := raw.Header{Opcode: raw.OpWrite, Address: 0x42, Size: 0x1234}
	var buf [raw.HeaderSize]byte
	in.Put(buf[:])
	assert.Equal(t, []byte{0x01, 0x42, 0x34, 0x12}, buf[:])

	out, err := raw.ParseHeader(buf[:])
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = raw.ParseHeader([]byte{1, 2})
	assert.Error(t, err)
}

func TestStatusMapping(t *testing.T) {
	kinds := []bus.ErrorKind{
		bus.NoAcknowledge,
		bus.ArbitrationLoss,
		bus.TxNotEmpty,
		bus.InvalidReadBufferLength,
		bus.InvalidWriteBufferLength,
		bus.AddressOutOfRange,
	}
	for _, kind := range kinds {
		status := raw.FromBusError(bus.Err(kind))
		err := status.ToError()
		require.Error(t, err, "kind %v", kind)
		var be *bus.Error
		require.True(t, errors.As(err, &be))
		assert.Equal(t, kind, be.Kind, "kind should survive the round trip")
	}

	assert.NoError(t, raw.StatusSuccess.ToError())
	assert.Equal(t, raw.StatusOther, raw.FromBusError(errors.New("not a bus error")))
	assert.Error(t, raw.StatusInvalidOpcode.ToError())
	assert.Error(t, raw.StatusOther.ToError())
}

// startI2cServer runs ServeI2c against a simulated bus and hands back
// the host-side connection.
func startI2cServer(t *testing.T, i2c bus.I2C) *raw.I2cConn {
	t.Helper()
	hostEnd, devEnd := net.Pipe()
	go func() { _ = raw.ServeI2c(wire.NewStreamConn(devEnd), i2c) }()
	t.Cleanup(func() {
		hostEnd.Close()
		devEnd.Close()
	})
	return raw.NewI2cConn(wire.NewStreamConn(hostEnd))
}

func TestI2cWriteThenRead(t *testing.T) {
	sim := simbus.NewI2c()
	sim.AddDevice(0x50, map[uint8][]byte{0x10: {0xab, 0xcd}})
	conn := startI2cServer(t, sim)

	// Set the register pointer, then read two bytes back.
	require.NoError(t, conn.BlockingWrite(0x50, []byte{0x10}))
	buf := make([]byte, 2)
	require.NoError(t, conn.BlockingRead(0x50, buf))
	assert.Equal(t, []byte{0xab, 0xcd}, buf)
}

func TestI2cReadAbsentDevice(t *testing.T) {
	conn := startI2cServer(t, simbus.NewI2c())

	buf := make([]byte, 1)
	err := conn.BlockingRead(0x23, buf)
	var be *bus.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, bus.NoAcknowledge, be.Kind)

	// A failed transfer does not poison the connection.
	err = conn.BlockingWrite(0x23, []byte{0})
	require.ErrorAs(t, err, &be)
	assert.Equal(t, bus.NoAcknowledge, be.Kind)
}

func TestI2cInvalidOpcodeRejected(t *testing.T) {
	sim := simbus.NewI2c()
	hostEnd, devEnd := net.Pipe()
	go func() { _ = raw.ServeI2c(wire.NewStreamConn(devEnd), sim) }()
	t.Cleanup(func() {
		hostEnd.Close()
		devEnd.Close()
	})
	conn := wire.NewStreamConn(hostEnd)

	var req [raw.HeaderSize]byte
	raw.Header{Opcode: 0x77, Address: 1, Size: 0}.Put(req[:])
	require.NoError(t, wire.WriteMessage(conn, req[:]))

	var buf [wire.MaxMessageSize]byte
	n, err := wire.ReadMessage(conn, buf[:])
	require.NoError(t, err)
	require.Equal(t, raw.HeaderSize, n)
	assert.Equal(t, raw.StatusInvalidOpcode, raw.Status(buf[0]))
}
