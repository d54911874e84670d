package client_test

import (
	"context"
	"errors"
	"testing"

	"github.com/picodegallo/gallo/client"
	"github.com/picodegallo/gallo/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame builds a response frame for tests.
func frame(key uint32, encode func(*wire.Encoder)) []byte {
	e := wire.NewEncoder(wire.AppendFrame(nil, key, nil))
	if encode != nil {
		encode(e)
	}
	return e.Bytes()
}

// echoResponder answers every request with a success frame carrying the
// request body back, which is exactly what ping does.
func echoResponder(req []byte) ([]byte, error) {
	key, body, err := wire.SplitFrame(req)
	if err != nil {
		return nil, err
	}
	return wire.AppendFrame(nil, key, body), nil
}

func TestPingThroughMock(t *testing.T) {
	c := client.New(client.NewMockTransport(echoResponder))
	echo, err := c.Ping(1234)
	require.NoError(t, err)
	assert.Equal(t, uint32(1234), echo)
}

func TestEndpointFailureMarker(t *testing.T) {
	c := client.New(client.NewMockTransport(func(req []byte) ([]byte, error) {
		key, _, _ := wire.SplitFrame(req)
		return frame(key, wire.EncodeErr), nil
	}))

	_, err := c.I2cRead(0x50, 4)
	require.Error(t, err)
	require.True(t, client.IsEndpointFailure(err))
	var ee *client.EndpointError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, client.I2cReadFail, ee.Kind)

	err = c.SpiFlush()
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, client.SpiFlushFail, ee.Kind)

	err = c.GpioWaitForRisingEdge(1)
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, client.GpioWaitFail, ee.Kind)
}

func TestDeviceRejectionIsCommError(t *testing.T) {
	c := client.New(client.NewMockTransport(func(req []byte) ([]byte, error) {
		return frame(wire.Error.Key, func(e *wire.Encoder) { e.U8(uint8(wire.RejectUnknownKey)) }), nil
	}))

	_, err := c.Ping(1)
	require.Error(t, err)
	assert.False(t, client.IsEndpointFailure(err))
	var ce *client.CommError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "unknown endpoint key")
}

func TestMismatchedResponseKeyIsCommError(t *testing.T) {
	c := client.New(client.NewMockTransport(func(req []byte) ([]byte, error) {
		return frame(wire.SpiRead.Key, wire.EncodeOk), nil
	}))

	_, err := c.Ping(1)
	var ce *client.CommError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "does not match")
}

func TestTransportErrorIsCommError(t *testing.T) {
	boom := errors.New("usb gone")
	c := client.New(client.NewMockTransport(func(req []byte) ([]byte, error) {
		return nil, boom
	}))

	err := c.I2cWrite(0x10, []byte{1})
	var ce *client.CommError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, boom)
}

func TestCallsAfterCloseReturnErrClosed(t *testing.T) {
	c := client.New(client.NewMockTransport(echoResponder))
	require.NoError(t, c.Close())

	select {
	case <-c.Closed():
	default:
		t.Fatal("Closed channel not closed after Close")
	}

	_, err := c.Ping(1)
	assert.ErrorIs(t, err, client.ErrClosed)
}

func TestContextCancellation(t *testing.T) {
	c := client.New(client.NewMockTransport(echoResponder))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.PingCtx(ctx, 1)
	assert.Error(t, err)
}

func TestGpioGetDecodesState(t *testing.T) {
	c := client.New(client.NewMockTransport(func(req []byte) ([]byte, error) {
		return frame(wire.GpioGet.Key, func(e *wire.Encoder) {
			wire.EncodeOk(e)
			e.U8(uint8(wire.High))
		}), nil
	}))
	st, err := c.GpioGet(0)
	require.NoError(t, err)
	assert.Equal(t, wire.High, st)
}

func TestGpioGetRejectsBogusState(t *testing.T) {
	c := client.New(client.NewMockTransport(func(req []byte) ([]byte, error) {
		return frame(wire.GpioGet.Key, func(e *wire.Encoder) {
			wire.EncodeOk(e)
			e.U8(9)
		}), nil
	}))
	_, err := c.GpioGet(0)
	var ce *client.CommError
	assert.ErrorAs(t, err, &ce)
}

func TestVersionDecoded(t *testing.T) {
	c := client.New(client.NewMockTransport(func(req []byte) ([]byte, error) {
		return frame(wire.Version.Key, func(e *wire.Encoder) {
			(&wire.VersionInfo{Major: 0, Minor: 3, Patch: 1}).Encode(e)
		}), nil
	}))
	v, err := c.Version()
	require.NoError(t, err)
	assert.Equal(t, "0.3.1", v.String())
}

// The returned read buffer must be owned by the caller, not alias the
// transport's receive buffer.
func TestI2cReadReturnsOwnedCopy(t *testing.T) {
	c := client.New(client.NewMockTransport(func(req []byte) ([]byte, error) {
		return frame(wire.I2cRead.Key, func(e *wire.Encoder) {
			wire.EncodeOk(e)
			e.Blob([]byte{0x11, 0x22})
		}), nil
	}))
	first, err := c.I2cRead(0x50, 2)
	require.NoError(t, err)
	_, err = c.I2cRead(0x50, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x11, 0x22}, first)
}

