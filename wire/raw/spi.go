package raw

import (
	"github.com/picodegallo/gallo/bus"
	"github.com/picodegallo/gallo/wire"
)

// SpiConn is the host side of the minimal SPI protocol. The address
// byte in the header is unused; SPI is addressless.
type SpiConn struct {
	conn wire.PacketConn
	buf  [wire.MaxMessageSize]byte
}

// NewSpiConn wraps an open connection to the device's SPI endpoint pair.
func NewSpiConn(conn wire.PacketConn) *SpiConn { return &SpiConn{conn: conn} }

// BlockingRead reads len(buf) bytes from the bus.
func (c *SpiConn) BlockingRead(buf []byte) error {
	Header{Opcode: OpRead, Size: uint16(len(buf))}.Put(c.buf[:])
	if err := wire.WriteMessage(c.conn, c.buf[:HeaderSize]); err != nil {
		return err
	}
	n, err := wire.ReadMessage(c.conn, c.buf[:])
	if err != nil {
		return err
	}
	if n < HeaderSize {
		return bus.Err(bus.Other)
	}
	if err := Status(c.buf[0]).ToError(); err != nil {
		return err
	}
	copy(buf, c.buf[HeaderSize:n])
	return nil
}

// BlockingWrite writes p to the bus.
func (c *SpiConn) BlockingWrite(p []byte) error {
	Header{Opcode: OpWrite, Size: uint16(len(p))}.Put(c.buf[:])
	n := copy(c.buf[HeaderSize:], p)
	if n < len(p) {
		return bus.Err(bus.InvalidWriteBufferLength)
	}
	if err := wire.WriteMessage(c.conn, c.buf[:HeaderSize+n]); err != nil {
		return err
	}
	return c.readStatus()
}

// BlockingTransfer writes p, then reads len(buf) bytes back.
func (c *SpiConn) BlockingTransfer(p, buf []byte) error {
	Header{Opcode: OpTransfer, Size: uint16(len(buf))}.Put(c.buf[:])
	n := copy(c.buf[HeaderSize:], p)
	if n < len(p) {
		return bus.Err(bus.InvalidWriteBufferLength)
	}
	if err := wire.WriteMessage(c.conn, c.buf[:HeaderSize+n]); err != nil {
		return err
	}
	rn, err := wire.ReadMessage(c.conn, c.buf[:])
	if err != nil {
		return err
	}
	if rn < HeaderSize {
		return bus.Err(bus.Other)
	}
	if err := Status(c.buf[0]).ToError(); err != nil {
		return err
	}
	copy(buf, c.buf[HeaderSize:rn])
	return nil
}

// Flush blocks until the device's transmit path is drained.
func (c *SpiConn) Flush() error {
	Header{Opcode: OpFlush}.Put(c.buf[:])
	if err := wire.WriteMessage(c.conn, c.buf[:HeaderSize]); err != nil {
		return err
	}
	return c.readStatus()
}

func (c *SpiConn) readStatus() error {
	n, err := wire.ReadMessage(c.conn, c.buf[:])
	if err != nil {
		return err
	}
	if n < 1 {
		return bus.Err(bus.Other)
	}
	return Status(c.buf[0]).ToError()
}
