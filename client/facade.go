package client

import (
	"context"

	"github.com/picodegallo/gallo/wire"
)

// Capability views over one shared connection. The Client owns the
// transport; the views borrow it, so a program can hand its I2C code an
// I2cPort and its GPIO code a GpioPort without either being able to
// close or replace the connection, and without duplicating connection
// state. The Client's lock keeps cross-view calls serialized.

// I2cPort is a borrowed I2C-only view of a Client.
type I2cPort struct{ c *Client }

// SpiPort is a borrowed SPI-only view of a Client.
type SpiPort struct{ c *Client }

// GpioPort is a borrowed view of one GPIO pin.
type GpioPort struct {
	c   *Client
	pin uint8
}

// I2c returns the I2C view.
func (c *Client) I2c() I2cPort { return I2cPort{c: c} }

// Spi returns the SPI view.
func (c *Client) Spi() SpiPort { return SpiPort{c: c} }

// Gpio returns a view of one pin.
func (c *Client) Gpio(pin uint8) GpioPort { return GpioPort{c: c, pin: pin} }

func (p I2cPort) Read(ctx context.Context, address uint8, count uint16) ([]byte, error) {
	return p.c.I2cReadCtx(ctx, address, count)
}

func (p I2cPort) Write(ctx context.Context, address uint8, contents []byte) error {
	return p.c.I2cWriteCtx(ctx, address, contents)
}

// WriteRead performs a write followed by a read, the usual
// register-pointer idiom for I2C peripherals.
func (p I2cPort) WriteRead(ctx context.Context, address uint8, contents []byte, count uint16) ([]byte, error) {
	if err := p.c.I2cWriteCtx(ctx, address, contents); err != nil {
		return nil, err
	}
	return p.c.I2cReadCtx(ctx, address, count)
}

func (p SpiPort) Read(ctx context.Context, count uint16) ([]byte, error) {
	return p.c.SpiReadCtx(ctx, count)
}

func (p SpiPort) Write(ctx context.Context, contents []byte) error {
	return p.c.SpiWriteCtx(ctx, contents)
}

func (p SpiPort) Flush(ctx context.Context) error {
	return p.c.SpiFlushCtx(ctx)
}

// WriteRead performs a write followed by a read.
func (p SpiPort) WriteRead(ctx context.Context, contents []byte, count uint16) ([]byte, error) {
	if err := p.c.SpiWriteCtx(ctx, contents); err != nil {
		return nil, err
	}
	return p.c.SpiReadCtx(ctx, count)
}

func (p GpioPort) Get(ctx context.Context) (wire.PinState, error) {
	return p.c.GpioGetCtx(ctx, p.pin)
}

func (p GpioPort) Put(ctx context.Context, state wire.PinState) error {
	return p.c.GpioPutCtx(ctx, p.pin, state)
}

func (p GpioPort) WaitForHigh(ctx context.Context) error {
	return p.c.GpioWaitForHighCtx(ctx, p.pin)
}

func (p GpioPort) WaitForLow(ctx context.Context) error {
	return p.c.GpioWaitForLowCtx(ctx, p.pin)
}

func (p GpioPort) WaitForRisingEdge(ctx context.Context) error {
	return p.c.GpioWaitForRisingEdgeCtx(ctx, p.pin)
}

func (p GpioPort) WaitForFallingEdge(ctx context.Context) error {
	return p.c.GpioWaitForFallingEdgeCtx(ctx, p.pin)
}

func (p GpioPort) WaitForAnyEdge(ctx context.Context) error {
	return p.c.GpioWaitForAnyEdgeCtx(ctx, p.pin)
}
