// Package simbus provides in-memory bus adapters: a register-model I2C
// bus, a loopback SPI bus, and an 8-pin GPIO bank. The serve command
// and the test suite run the dispatcher against these instead of real
// silicon.
package simbus

import (
	"sync"

	"github.com/picodegallo/gallo/bus"
	"github.com/picodegallo/gallo/wire"
)

// I2cDevice models one downstream I2C peripheral as a register file
// with an auto-incrementing register pointer: a write sets the pointer
// (first byte) and stores the remaining bytes; a read returns bytes
// starting at the pointer.
type I2cDevice struct {
	Registers map[uint8][]byte
	pointer   uint8
}

// I2c is a simulated I2C bus holding devices by 7-bit address.
type I2c struct {
	mu        sync.Mutex
	devices   map[uint8]*I2cDevice
	frequency uint32

	// FailWith, when set, makes every transfer fail with that kind.
	FailWith *bus.ErrorKind
	// FailConfig makes SetFrequency fail.
	FailConfig bool

	// Reads counts read transactions, for probe accounting in tests.
	Reads int
}

// NewI2c returns an empty simulated bus.
func NewI2c() *I2c {
	return &I2c{devices: make(map[uint8]*I2cDevice), frequency: 100_000}
}

// AddDevice attaches a device at addr with the given register file.
func (b *I2c) AddDevice(addr uint8, regs map[uint8][]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices[addr] = &I2cDevice{Registers: regs}
}

func (b *I2c) Read(addr uint8, buf []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Reads++
	if b.FailWith != nil {
		return bus.Err(*b.FailWith)
	}
	dev, ok := b.devices[addr]
	if !ok {
		// Nothing pulls SDA low during the address phase.
		return bus.Err(bus.NoAcknowledge)
	}
	data := dev.Registers[dev.pointer]
	for i := range buf {
		if i < len(data) {
			buf[i] = data[i]
		} else {
			buf[i] = 0xff
		}
	}
	return nil
}

func (b *I2c) Write(addr uint8, p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return bus.Err(*b.FailWith)
	}
	dev, ok := b.devices[addr]
	if !ok {
		return bus.Err(bus.NoAcknowledge)
	}
	if len(p) == 0 {
		return nil
	}
	dev.pointer = p[0]
	if len(p) > 1 {
		if dev.Registers == nil {
			dev.Registers = make(map[uint8][]byte)
		}
		dev.Registers[dev.pointer] = append([]byte(nil), p[1:]...)
	}
	return nil
}

func (b *I2c) SetFrequency(hz uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailConfig {
		return bus.Err(bus.Other)
	}
	b.frequency = hz
	return nil
}

// Frequency returns the last applied bus frequency.
func (b *I2c) Frequency() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frequency
}

// Spi is a simulated SPI bus. Writes are captured; reads drain a
// programmable response queue, then shift out 0xff like an idle slave.
type Spi struct {
	mu        sync.Mutex
	written   []byte
	pending   []byte
	flushed   int
	frequency uint32
	phase     wire.SpiPhase
	polarity  wire.SpiPolarity

	FailWith   *bus.ErrorKind
	FailConfig bool
}

// NewSpi returns an idle simulated SPI bus.
func NewSpi() *Spi { return &Spi{frequency: 1_000_000} }

// QueueResponse appends bytes that subsequent reads will return.
func (b *Spi) QueueResponse(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, p...)
}

// Written returns everything written to the bus so far.
func (b *Spi) Written() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.written...)
}

// Flushes returns how many flushes have completed.
func (b *Spi) Flushes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushed
}

func (b *Spi) Read(buf []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return bus.Err(*b.FailWith)
	}
	for i := range buf {
		if len(b.pending) > 0 {
			buf[i] = b.pending[0]
			b.pending = b.pending[1:]
		} else {
			buf[i] = 0xff
		}
	}
	return nil
}

func (b *Spi) Write(p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return bus.Err(*b.FailWith)
	}
	b.written = append(b.written, p...)
	return nil
}

func (b *Spi) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return bus.Err(*b.FailWith)
	}
	b.flushed++
	return nil
}

func (b *Spi) Configure(hz uint32, phase wire.SpiPhase, polarity wire.SpiPolarity) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailConfig {
		return bus.Err(bus.Other)
	}
	b.frequency = hz
	b.phase = phase
	b.polarity = polarity
	return nil
}

// Frequency returns the last applied bus frequency.
func (b *Spi) Frequency() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frequency
}

type pinDirection uint8

const (
	dirInput pinDirection = iota
	dirOutput
)

type pin struct {
	level     wire.PinState
	direction pinDirection
}

// Gpio is a simulated 8-pin bank. External test harnesses drive input
// levels with SetLevel; Get and Put force pin direction as a side
// effect, like the hardware does.
type Gpio struct {
	mu   sync.Mutex
	pins [bus.NumPins]pin

	FailWith *bus.ErrorKind
}

// NewGpio returns a bank with all pins low.
func NewGpio() *Gpio { return &Gpio{} }

// SetLevel drives a pin level from outside the device, like a wire
// attached to the pin would.
func (g *Gpio) SetLevel(pin uint8, s wire.PinState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pins[pin].level = s
}

// Direction reports the pin's current mode ("input" or "output").
func (g *Gpio) Direction(pin uint8) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pins[pin].direction == dirOutput {
		return "output"
	}
	return "input"
}

func (g *Gpio) Get(pin uint8) (wire.PinState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailWith != nil {
		return wire.Low, bus.Err(*g.FailWith)
	}
	if int(pin) >= len(g.pins) {
		return wire.Low, bus.Err(bus.AddressOutOfRange)
	}
	g.pins[pin].direction = dirInput
	return g.pins[pin].level, nil
}

func (g *Gpio) Put(pin uint8, s wire.PinState) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailWith != nil {
		return bus.Err(*g.FailWith)
	}
	if int(pin) >= len(g.pins) {
		return bus.Err(bus.AddressOutOfRange)
	}
	g.pins[pin].direction = dirOutput
	g.pins[pin].level = s
	return nil
}
