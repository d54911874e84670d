// Package raw implements the minimal binary protocol variant: a 4-byte
// request header and a 1-byte status response, one endpoint pair per
// bus, no schema. The richer keyed protocol in package wire supersedes
// it, but the format is kept for compatibility with older firmware.
package raw

import (
	"encoding/binary"
	"fmt"

	"github.com/picodegallo/gallo/bus"
)

// HeaderSize is the fixed request header length:
// [opcode:1][address:1][size_lo:1][size_hi:1].
const HeaderSize = 4

// Opcodes.
const (
	OpRead  uint8 = 0x00
	OpWrite uint8 = 0x01
	// SPI extensions.
	OpTransfer uint8 = 0x02
	OpFlush    uint8 = 0x03
)

// Status is the one-byte response status.
type Status uint8

const (
	StatusSuccess                  Status = 0
	StatusNoAcknowledge            Status = 1
	StatusArbitrationLoss          Status = 2
	StatusTxNotEmpty               Status = 3
	StatusInvalidReadBufferLength  Status = 4
	StatusInvalidWriteBufferLength Status = 5
	StatusAddressOutOfRange        Status = 6

	StatusInvalidOpcode Status = 254
	StatusOther         Status = 255
)

// FromBusError maps a bus error onto its wire status.
func FromBusError(err error) Status {
	be, ok := err.(*bus.Error)
	if !ok {
		return StatusOther
	}
	switch be.Kind {
	case bus.NoAcknowledge:
		return StatusNoAcknowledge
	case bus.ArbitrationLoss:
		return StatusArbitrationLoss
	case bus.TxNotEmpty:
		return StatusTxNotEmpty
	case bus.InvalidReadBufferLength:
		return StatusInvalidReadBufferLength
	case bus.InvalidWriteBufferLength:
		return StatusInvalidWriteBufferLength
	case bus.AddressOutOfRange:
		return StatusAddressOutOfRange
	default:
		return StatusOther
	}
}

// ToError converts a status back into an error, nil for success. The
// 3-way NoAcknowledge / ArbitrationLoss / Other distinction survives the
// round trip; the finer-grained statuses collapse onto their kinds.
func (s Status) ToError() error {
	switch s {
	case StatusSuccess:
		return nil
	case StatusNoAcknowledge:
		return bus.Err(bus.NoAcknowledge)
	case StatusArbitrationLoss:
		return bus.Err(bus.ArbitrationLoss)
	case StatusTxNotEmpty:
		return bus.Err(bus.TxNotEmpty)
	case StatusInvalidReadBufferLength:
		return bus.Err(bus.InvalidReadBufferLength)
	case StatusInvalidWriteBufferLength:
		return bus.Err(bus.InvalidWriteBufferLength)
	case StatusAddressOutOfRange:
		return bus.Err(bus.AddressOutOfRange)
	case StatusInvalidOpcode:
		return fmt.Errorf("raw: device rejected opcode")
	default:
		return bus.Err(bus.Other)
	}
}

// Header is the fixed-size request preamble.
type Header struct {
	Opcode  uint8
	Address uint8
	Size    uint16
}

// Put encodes the header into the first HeaderSize bytes of buf.
func (h Header) Put(buf []byte) {
	buf[0] = h.Opcode
	buf[1] = h.Address
	binary.LittleEndian.PutUint16(buf[2:4], h.Size)
}

// ParseHeader decodes a request header.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("raw: request shorter than header (%d bytes)", len(buf))
	}
	return Header{
		Opcode:  buf[0],
		Address: buf[1],
		Size:    binary.LittleEndian.Uint16(buf[2:4]),
	}, nil
}
