package raw

import (
	"github.com/picodegallo/gallo/bus"
	"github.com/picodegallo/gallo/wire"
)

// Device-side loops for the minimal variant. Each bus historically has
// its own endpoint pair, so each loop owns one connection and one
// working buffer, serving strictly one request at a time. A read error
// means the host went away; the caller decides whether to wait for a
// new connection.

// ServeI2c serves minimal-protocol I2C requests from conn until the
// connection fails.
func ServeI2c(conn wire.PacketConn, i2c bus.I2C) error {
	buf := make([]byte, wire.MaxMessageSize)
	for {
		n, err := wire.ReadMessage(conn, buf)
		if err != nil {
			if err == wire.ErrMessageTooLarge {
				if werr := writeStatus(conn, buf, Header{}, StatusInvalidReadBufferLength); werr != nil {
					return werr
				}
				continue
			}
			return err
		}
		hdr, err := ParseHeader(buf[:n])
		if err != nil {
			if werr := writeStatus(conn, buf, Header{}, StatusInvalidOpcode); werr != nil {
				return werr
			}
			continue
		}
		switch hdr.Opcode {
		case OpRead:
			if int(hdr.Size) > len(buf)-HeaderSize {
				if err := writeStatus(conn, buf, hdr, StatusInvalidReadBufferLength); err != nil {
					return err
				}
				continue
			}
			payload := buf[HeaderSize : HeaderSize+int(hdr.Size)]
			if err := i2c.Read(hdr.Address, payload); err != nil {
				if werr := writeStatus(conn, buf, hdr, FromBusError(err)); werr != nil {
					return werr
				}
				continue
			}
			buf[0] = byte(StatusSuccess)
			if err := wire.WriteMessage(conn, buf[:HeaderSize+int(hdr.Size)]); err != nil {
				return err
			}
		case OpWrite:
			if HeaderSize+int(hdr.Size) > n {
				if err := writeStatus(conn, buf, hdr, StatusInvalidWriteBufferLength); err != nil {
					return err
				}
				continue
			}
			status := StatusSuccess
			if err := i2c.Write(hdr.Address, buf[HeaderSize:HeaderSize+int(hdr.Size)]); err != nil {
				status = FromBusError(err)
			}
			if err := writeStatus(conn, buf, hdr, status); err != nil {
				return err
			}
		default:
			if err := writeStatus(conn, buf, hdr, StatusInvalidOpcode); err != nil {
				return err
			}
		}
	}
}

// ServeSpi serves minimal-protocol SPI requests from conn until the
// connection fails. The address byte is ignored; SPI is addressless.
func ServeSpi(conn wire.PacketConn, spi bus.SPI) error {
	buf := make([]byte, wire.MaxMessageSize)
	for {
		n, err := wire.ReadMessage(conn, buf)
		if err != nil {
			return err
		}
		hdr, err := ParseHeader(buf[:n])
		if err != nil {
			if werr := writeStatus(conn, buf, Header{}, StatusInvalidOpcode); werr != nil {
				return werr
			}
			continue
		}
		switch hdr.Opcode {
		case OpRead:
			if int(hdr.Size) > len(buf)-HeaderSize {
				if err := writeStatus(conn, buf, hdr, StatusInvalidReadBufferLength); err != nil {
					return err
				}
				continue
			}
			payload := buf[HeaderSize : HeaderSize+int(hdr.Size)]
			if err := spi.Read(payload); err != nil {
				if werr := writeStatus(conn, buf, hdr, FromBusError(err)); werr != nil {
					return werr
				}
				continue
			}
			buf[0] = byte(StatusSuccess)
			if err := wire.WriteMessage(conn, buf[:HeaderSize+int(hdr.Size)]); err != nil {
				return err
			}
		case OpWrite:
			status := StatusSuccess
			if err := spi.Write(buf[HeaderSize:n]); err != nil {
				status = FromBusError(err)
			}
			if err := writeStatus(conn, buf, hdr, status); err != nil {
				return err
			}
		case OpTransfer:
			// Write the payload, then read Size bytes back in one
			// operation.
			if int(hdr.Size) > len(buf)-HeaderSize {
				if err := writeStatus(conn, buf, hdr, StatusInvalidReadBufferLength); err != nil {
					return err
				}
				continue
			}
			if err := spi.Write(buf[HeaderSize:n]); err != nil {
				if werr := writeStatus(conn, buf, hdr, FromBusError(err)); werr != nil {
					return werr
				}
				continue
			}
			payload := buf[HeaderSize : HeaderSize+int(hdr.Size)]
			if err := spi.Read(payload); err != nil {
				if werr := writeStatus(conn, buf, hdr, FromBusError(err)); werr != nil {
					return werr
				}
				continue
			}
			buf[0] = byte(StatusSuccess)
			if err := wire.WriteMessage(conn, buf[:HeaderSize+int(hdr.Size)]); err != nil {
				return err
			}
		case OpFlush:
			status := StatusSuccess
			if err := spi.Flush(); err != nil {
				status = FromBusError(err)
			}
			if err := writeStatus(conn, buf, hdr, status); err != nil {
				return err
			}
		default:
			if err := writeStatus(conn, buf, hdr, StatusInvalidOpcode); err != nil {
				return err
			}
		}
	}
}

// writeStatus echoes the request header back with the opcode byte
// replaced by the status. Failed operations carry no payload.
func writeStatus(conn wire.PacketConn, buf []byte, hdr Header, status Status) error {
	hdr.Put(buf)
	buf[0] = byte(status)
	return wire.WriteMessage(conn, buf[:HeaderSize])
}

// I2cConn is the host side of the minimal I2C protocol.
type I2cConn struct {
	conn wire.PacketConn
	buf  [wire.MaxMessageSize]byte
}

// NewI2cConn wraps an open connection to the device's I2C endpoint pair.
func NewI2cConn(conn wire.PacketConn) *I2cConn { return &I2cConn{conn: conn} }

// BlockingRead reads len(buf) bytes from the device at addr.
func (c *I2cConn) BlockingRead(addr uint8, buf []byte) error {
	hdr := Header{Opcode: OpRead, Address: addr, Size: uint16(len(buf))}
	hdr.Put(c.buf[:])
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

// BlockingWrite writes p to the device at addr.
func (c *I2cConn) BlockingWrite(addr uint8, p []byte) error {
	hdr := Header{Opcode: OpWrite, Address: addr, Size: uint16(len(p))}
	hdr.Put(c.buf[:])
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
	if rn < 1 {
		return bus.Err(bus.Other)
	}
	return Status(c.buf[0]).ToError()
}
