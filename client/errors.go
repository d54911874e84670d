package client

import (
	"errors"
	"fmt"
)

// Two distinct error channels reach the caller. A *CommError means the
// conversation with the device broke down (device gone, frame
// undecodable, request rejected before it ran); an *EndpointError means
// the device ran the operation and it failed. Callers branch on the
// difference: the first usually means "give up on the connection", the
// second "this one call failed".

// ErrClosed is returned by every call made after the connection is
// closed or lost.
var ErrClosed = errors.New("client: connection closed")

// ErrDeviceNotFound is returned when no attached device matches the
// discovery criteria.
var ErrDeviceNotFound = errors.New("client: device not found")

// CommError wraps a transport or protocol-level failure.
type CommError struct {
	Op  string
	Err error
}

func (e *CommError) Error() string { return fmt.Sprintf("comm error during %s: %v", e.Op, e.Err) }
func (e *CommError) Unwrap() error { return e.Err }

// FailKind identifies which endpoint's failure marker came back.
type FailKind uint8

const (
	I2cReadFail FailKind = iota
	I2cWriteFail
	SpiReadFail
	SpiWriteFail
	SpiFlushFail
	GpioGetFail
	GpioPutFail
	GpioWaitFail
	SetConfigFail
)

func (k FailKind) String() string {
	switch k {
	case I2cReadFail:
		return "i2c read failed"
	case I2cWriteFail:
		return "i2c write failed"
	case SpiReadFail:
		return "spi read failed"
	case SpiWriteFail:
		return "spi write failed"
	case SpiFlushFail:
		return "spi flush failed"
	case GpioGetFail:
		return "gpio get failed"
	case GpioPutFail:
		return "gpio put failed"
	case GpioWaitFail:
		return "gpio wait failed"
	case SetConfigFail:
		return "set configuration failed"
	default:
		return "endpoint failed"
	}
}

// EndpointError is a protocol-level failure marker. It carries no
// diagnostic payload beyond its kind; the wire format does not say why.
type EndpointError struct {
	Kind FailKind
}

func (e *EndpointError) Error() string { return e.Kind.String() }

// IsEndpointFailure reports whether err is a failure marker (as opposed
// to a communication error).
func IsEndpointFailure(err error) bool {
	var ee *EndpointError
	return errors.As(err, &ee)
}
