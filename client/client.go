// Package client is the host side of the protocol: it encodes typed
// requests, drives the single in-flight USB exchange, and decodes the
// matching typed response into either a success value or one of two
// error channels (communication vs endpoint failure).
package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/picodegallo/gallo/wire"
)

// Client provides the high-level typed operations. All methods are safe
// for concurrent use: an internal lock serializes calls so that at most
// one request is on the wire at any instant, which is what keeps
// responses matched to requests on a protocol with no request IDs.
type Client struct {
	mu sync.Mutex
	t  Transport

	scratch []byte
}

// New constructs a Client over an open transport.
func New(t Transport) *Client {
	return &Client{t: t, scratch: make([]byte, 0, wire.MaxMessageSize)}
}

// Dial connects to a bridge dev server over TCP.
func Dial(addr string) (*Client, error) {
	t, err := DialTransport(addr)
	if err != nil {
		return nil, err
	}
	return New(t), nil
}

// Close tears down the underlying transport.
func (c *Client) Close() error { return c.t.Close() }

// Closed is closed once the connection is gone. Callers running
// long-lived polling loops select on it to exit promptly.
func (c *Client) Closed() <-chan struct{} { return c.t.Closed() }

// roundTrip encodes one request frame, exchanges it, and returns a
// decoder positioned at the response body after validating the key.
func (c *Client) roundTrip(ctx context.Context, ep wire.Endpoint, encode func(*wire.Encoder)) (*wire.Decoder, error) {
	e := wire.NewEncoder(wire.AppendFrame(c.scratch[:0], ep.Key, nil))
	if encode != nil {
		encode(e)
	}
	resp, err := c.t.Exchange(ctx, e.Bytes())
	if err != nil {
		return nil, &CommError{Op: ep.Path, Err: err}
	}
	key, body, err := wire.SplitFrame(resp)
	if err != nil {
		return nil, &CommError{Op: ep.Path, Err: err}
	}
	dec := wire.NewDecoder(body)
	if key == wire.Error.Key {
		reason, err := dec.U8()
		if err != nil {
			return nil, &CommError{Op: ep.Path, Err: err}
		}
		return nil, &CommError{Op: ep.Path, Err: fmt.Errorf("device rejected request: %s", wire.RejectReason(reason))}
	}
	if key != ep.Key {
		return nil, &CommError{Op: ep.Path, Err: fmt.Errorf("response key %#x does not match request", key)}
	}
	return dec, nil
}

// outcome consumes the Ok/Err discriminant of a fallible response.
func outcome(dec *wire.Decoder, path string, kind FailKind) error {
	ok, err := wire.DecodeResult(dec)
	if err != nil {
		return &CommError{Op: path, Err: err}
	}
	if !ok {
		return &EndpointError{Kind: kind}
	}
	return nil
}

// Ping sends v and expects it back unchanged. Infallible at the
// protocol level; only communication errors can surface.
func (c *Client) Ping(v uint32) (uint32, error) { return c.PingCtx(context.Background(), v) }

// PingCtx is the context-aware version of Ping.
func (c *Client) PingCtx(ctx context.Context, v uint32) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dec, err := c.roundTrip(ctx, wire.Ping, func(e *wire.Encoder) { e.U32(v) })
	if err != nil {
		return 0, err
	}
	echo, err := dec.U32()
	if err != nil {
		return 0, &CommError{Op: wire.Ping.Path, Err: err}
	}
	return echo, nil
}

// I2cRead reads count bytes from the I2C device at address.
func (c *Client) I2cRead(address uint8, count uint16) ([]byte, error) {
	return c.I2cReadCtx(context.Background(), address, count)
}

func (c *Client) I2cReadCtx(ctx context.Context, address uint8, count uint16) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dec, err := c.roundTrip(ctx, wire.I2cRead, func(e *wire.Encoder) {
		(&wire.I2cReadRequest{Address: address, Count: count}).Encode(e)
	})
	if err != nil {
		return nil, err
	}
	if err := outcome(dec, wire.I2cRead.Path, I2cReadFail); err != nil {
		return nil, err
	}
	data, err := dec.Blob()
	if err != nil {
		return nil, &CommError{Op: wire.I2cRead.Path, Err: err}
	}
	// The decoder borrows the transport's receive buffer; hand the
	// caller an owned copy.
	return append([]byte(nil), data...), nil
}

// I2cWrite writes contents to the I2C device at address.
func (c *Client) I2cWrite(address uint8, contents []byte) error {
	return c.I2cWriteCtx(context.Background(), address, contents)
}

func (c *Client) I2cWriteCtx(ctx context.Context, address uint8, contents []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	dec, err := c.roundTrip(ctx, wire.I2cWrite, func(e *wire.Encoder) {
		(&wire.I2cWriteRequest{Address: address, Contents: contents}).Encode(e)
	})
	if err != nil {
		return err
	}
	return outcome(dec, wire.I2cWrite.Path, I2cWriteFail)
}

// SpiRead reads count bytes from the SPI bus.
func (c *Client) SpiRead(count uint16) ([]byte, error) {
	return c.SpiReadCtx(context.Background(), count)
}

func (c *Client) SpiReadCtx(ctx context.Context, count uint16) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dec, err := c.roundTrip(ctx, wire.SpiRead, func(e *wire.Encoder) {
		(&wire.SpiReadRequest{Count: count}).Encode(e)
	})
	if err != nil {
		return nil, err
	}
	if err := outcome(dec, wire.SpiRead.Path, SpiReadFail); err != nil {
		return nil, err
	}
	data, err := dec.Blob()
	if err != nil {
		return nil, &CommError{Op: wire.SpiRead.Path, Err: err}
	}
	return append([]byte(nil), data...), nil
}

// SpiWrite writes contents to the SPI bus.
func (c *Client) SpiWrite(contents []byte) error {
	return c.SpiWriteCtx(context.Background(), contents)
}

func (c *Client) SpiWriteCtx(ctx context.Context, contents []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	dec, err := c.roundTrip(ctx, wire.SpiWrite, func(e *wire.Encoder) {
		(&wire.SpiWriteRequest{Contents: contents}).Encode(e)
	})
	if err != nil {
		return err
	}
	return outcome(dec, wire.SpiWrite.Path, SpiWriteFail)
}

// SpiFlush blocks until the device's SPI transmit path is drained.
func (c *Client) SpiFlush() error { return c.SpiFlushCtx(context.Background()) }

func (c *Client) SpiFlushCtx(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	dec, err := c.roundTrip(ctx, wire.SpiFlush, nil)
	if err != nil {
		return err
	}
	return outcome(dec, wire.SpiFlush.Path, SpiFlushFail)
}

// GpioGet samples the level of pin, forcing it to input mode on the
// device.
func (c *Client) GpioGet(pin uint8) (wire.PinState, error) {
	return c.GpioGetCtx(context.Background(), pin)
}

func (c *Client) GpioGetCtx(ctx context.Context, pin uint8) (wire.PinState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dec, err := c.roundTrip(ctx, wire.GpioGet, func(e *wire.Encoder) {
		(&wire.GpioGetRequest{Pin: pin}).Encode(e)
	})
	if err != nil {
		return wire.Low, err
	}
	if err := outcome(dec, wire.GpioGet.Path, GpioGetFail); err != nil {
		return wire.Low, err
	}
	st, err := dec.U8()
	if err != nil || st > uint8(wire.High) {
		return wire.Low, &CommError{Op: wire.GpioGet.Path, Err: fmt.Errorf("invalid pin state in response")}
	}
	return wire.PinState(st), nil
}

// GpioPut drives pin to state, forcing it to output mode on the device.
func (c *Client) GpioPut(pin uint8, state wire.PinState) error {
	return c.GpioPutCtx(context.Background(), pin, state)
}

func (c *Client) GpioPutCtx(ctx context.Context, pin uint8, state wire.PinState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	dec, err := c.roundTrip(ctx, wire.GpioPut, func(e *wire.Encoder) {
		(&wire.GpioPutRequest{Pin: pin, State: state}).Encode(e)
	})
	if err != nil {
		return err
	}
	return outcome(dec, wire.GpioPut.Path, GpioPutFail)
}

func (c *Client) gpioWait(ctx context.Context, ep wire.Endpoint, pin uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	dec, err := c.roundTrip(ctx, ep, func(e *wire.Encoder) {
		(&wire.GpioWaitRequest{Pin: pin}).Encode(e)
	})
	if err != nil {
		return err
	}
	return outcome(dec, ep.Path, GpioWaitFail)
}

// GpioWaitForHigh blocks until pin reads high. Satisfied immediately by
// an already-high level. There is no wire-level timeout: bound the wait
// with ctx, at the cost of the connection if it fires.
func (c *Client) GpioWaitForHigh(pin uint8) error {
	return c.GpioWaitForHighCtx(context.Background(), pin)
}

func (c *Client) GpioWaitForHighCtx(ctx context.Context, pin uint8) error {
	return c.gpioWait(ctx, wire.GpioWaitForHigh, pin)
}

// GpioWaitForLow blocks until pin reads low.
func (c *Client) GpioWaitForLow(pin uint8) error {
	return c.GpioWaitForLowCtx(context.Background(), pin)
}

func (c *Client) GpioWaitForLowCtx(ctx context.Context, pin uint8) error {
	return c.gpioWait(ctx, wire.GpioWaitForLow, pin)
}

// GpioWaitForRisingEdge blocks until a low-to-high transition is
// observed on pin. An already-high level does not satisfy it.
func (c *Client) GpioWaitForRisingEdge(pin uint8) error {
	return c.GpioWaitForRisingEdgeCtx(context.Background(), pin)
}

func (c *Client) GpioWaitForRisingEdgeCtx(ctx context.Context, pin uint8) error {
	return c.gpioWait(ctx, wire.GpioWaitForRising, pin)
}

// GpioWaitForFallingEdge blocks until a high-to-low transition is
// observed on pin.
func (c *Client) GpioWaitForFallingEdge(pin uint8) error {
	return c.GpioWaitForFallingEdgeCtx(context.Background(), pin)
}

func (c *Client) GpioWaitForFallingEdgeCtx(ctx context.Context, pin uint8) error {
	return c.gpioWait(ctx, wire.GpioWaitForFalling, pin)
}

// GpioWaitForAnyEdge blocks until pin transitions in either direction,
// whichever occurs first.
func (c *Client) GpioWaitForAnyEdge(pin uint8) error {
	return c.GpioWaitForAnyEdgeCtx(context.Background(), pin)
}

func (c *Client) GpioWaitForAnyEdgeCtx(ctx context.Context, pin uint8) error {
	return c.gpioWait(ctx, wire.GpioWaitForAny, pin)
}

// SetConfig reconfigures both buses. A failure means at least one of
// the two sub-applications failed.
func (c *Client) SetConfig(i2cHz, spiHz uint32, phase wire.SpiPhase, polarity wire.SpiPolarity) error {
	return c.SetConfigCtx(context.Background(), i2cHz, spiHz, phase, polarity)
}

func (c *Client) SetConfigCtx(ctx context.Context, i2cHz, spiHz uint32, phase wire.SpiPhase, polarity wire.SpiPolarity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	dec, err := c.roundTrip(ctx, wire.SetConfiguration, func(e *wire.Encoder) {
		(&wire.SetConfigRequest{
			I2cFrequency: i2cHz,
			SpiFrequency: spiHz,
			SpiPhase:     phase,
			SpiPolarity:  polarity,
		}).Encode(e)
	})
	if err != nil {
		return err
	}
	return outcome(dec, wire.SetConfiguration.Path, SetConfigFail)
}

// Version returns the device's compiled-in version triple.
func (c *Client) Version() (wire.VersionInfo, error) { return c.VersionCtx(context.Background()) }

func (c *Client) VersionCtx(ctx context.Context) (wire.VersionInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dec, err := c.roundTrip(ctx, wire.Version, nil)
	if err != nil {
		return wire.VersionInfo{}, err
	}
	var v wire.VersionInfo
	if err := v.Decode(dec); err != nil {
		return wire.VersionInfo{}, &CommError{Op: wire.Version.Path, Err: err}
	}
	return v, nil
}
