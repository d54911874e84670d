// Package wire defines the request/response schema shared verbatim by the
// bridge device and the host client, and the binary framing that carries
// it over a USB bulk endpoint pair.
package wire

import "hash/fnv"

// Endpoint names one request/response operation pair. The path is the
// stable identity; the key is a fixed-width discriminator derived from it
// so the dispatcher can route a frame without decoding the body first.
type Endpoint struct {
	Path string
	Key  uint32
}

// KeyFor computes the 32-bit FNV-1a hash of a path. Keys are stable for
// the lifetime of a protocol version; requests and responses are matched
// by key, never by body shape.
func KeyFor(path string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	return h.Sum32()
}

func ep(path string) Endpoint { return Endpoint{Path: path, Key: KeyFor(path)} }

var (
	Ping               = ep("ping")
	I2cRead            = ep("i2c/read")
	I2cWrite           = ep("i2c/write")
	SpiRead            = ep("spi/read")
	SpiWrite           = ep("spi/write")
	SpiFlush           = ep("spi/flush")
	GpioGet            = ep("gpio/get")
	GpioPut            = ep("gpio/put")
	GpioWaitForHigh    = ep("gpio/wait-high")
	GpioWaitForLow     = ep("gpio/wait-low")
	GpioWaitForRising  = ep("gpio/wait-rising")
	GpioWaitForFalling = ep("gpio/wait-falling")
	GpioWaitForAny     = ep("gpio/wait-any")
	SetConfiguration   = ep("set-config")
	Version            = ep("version")

	// Error is the reserved path used for responses to requests the
	// dispatcher could not decode or route.
	Error = ep("error")
)

// Endpoints lists every routable endpoint (Error excluded).
var Endpoints = []Endpoint{
	Ping,
	I2cRead, I2cWrite,
	SpiRead, SpiWrite, SpiFlush,
	GpioGet, GpioPut,
	GpioWaitForHigh, GpioWaitForLow, GpioWaitForRising, GpioWaitForFalling, GpioWaitForAny,
	SetConfiguration,
	Version,
}
