// Package bus defines the adapter boundary between the dispatcher and
// the physical I2C/SPI/GPIO silicon. Concrete drivers live behind these
// interfaces; the dispatcher only ever sees read/write style primitives
// and the closed error taxonomy below.
package bus

import "github.com/picodegallo/gallo/wire"

// NumPins is the fixed GPIO line count of the bridge device.
const NumPins = 8

// ErrorKind is the closed taxonomy of bus-level failures. Callers
// meaningfully branch on NoAcknowledge ("no device answered") versus
// ArbitrationLoss ("bus contention") versus everything else, so at least
// that 3-way distinction is preserved wherever errors cross a boundary.
type ErrorKind uint8

const (
	NoAcknowledge ErrorKind = iota
	ArbitrationLoss
	TxNotEmpty
	InvalidReadBufferLength
	InvalidWriteBufferLength
	AddressOutOfRange
	Other
)

func (k ErrorKind) String() string {
	switch k {
	case NoAcknowledge:
		return "no acknowledge"
	case ArbitrationLoss:
		return "arbitration loss"
	case TxNotEmpty:
		return "tx not empty"
	case InvalidReadBufferLength:
		return "invalid read buffer length"
	case InvalidWriteBufferLength:
		return "invalid write buffer length"
	case AddressOutOfRange:
		return "address out of range"
	default:
		return "bus error"
	}
}

// Error is a bus-level hardware error.
type Error struct {
	Kind ErrorKind
}

func (e *Error) Error() string { return e.Kind.String() }

// Err returns a bus error of the given kind.
func Err(kind ErrorKind) *Error { return &Error{Kind: kind} }

// I2C is a blocking master on the I2C bus. Implementations map their
// hardware error set onto *Error.
type I2C interface {
	Read(addr uint8, buf []byte) error
	Write(addr uint8, p []byte) error
	SetFrequency(hz uint32) error
}

// SPI is a blocking master on the SPI bus. SPI is addressless on this
// device.
type SPI interface {
	Read(buf []byte) error
	Write(p []byte) error
	// Flush blocks until the transmit path is drained.
	Flush() error
	Configure(hz uint32, phase wire.SpiPhase, polarity wire.SpiPolarity) error
}

// GPIO exposes the device's pin bank. Direction is implicit: Get forces
// the pin to input mode, Put forces it to output mode, as a side effect.
type GPIO interface {
	Get(pin uint8) (wire.PinState, error)
	Put(pin uint8, state wire.PinState) error
}
