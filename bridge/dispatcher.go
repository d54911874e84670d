// Package bridge implements the device side of the protocol: one
// dispatcher owning the shared hardware resources, routing decoded
// request frames to bus operations and writing typed response frames
// back, strictly one request at a time per connection.
package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/picodegallo/gallo/bus"
	"github.com/picodegallo/gallo/internal/log"
	"github.com/picodegallo/gallo/version"
	"github.com/picodegallo/gallo/wire"
)

// Config is the mutable bus configuration owned by the dispatcher. It
// is updated only by set-config and read by every bus handler.
type Config struct {
	I2cFrequency uint32
	SpiFrequency uint32
	SpiPhase     wire.SpiPhase
	SpiPolarity  wire.SpiPolarity
}

// DefaultConfig matches the device's power-on bus configuration.
func DefaultConfig() Config {
	return Config{
		I2cFrequency: 100_000,
		SpiFrequency: 1_000_000,
		SpiPhase:     wire.CaptureOnFirstTransition,
		SpiPolarity:  wire.IdleLow,
	}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

// WithRawLogger enables hex tracing of every frame in both directions.
func WithRawLogger(rl log.RawLogger) Option { return func(d *Dispatcher) { d.raw = rl } }

// WithVersion overrides the reported version triple.
func WithVersion(v wire.VersionInfo) Option { return func(d *Dispatcher) { d.version = v } }

// WithPollInterval sets the GPIO wait sampling interval.
func WithPollInterval(iv time.Duration) Option {
	return func(d *Dispatcher) { d.waiter.interval = iv }
}

// Dispatcher owns the I2C and SPI handles, the GPIO bank, and one
// reusable working buffer. It is not safe for concurrent use: the
// protocol is single-request-at-a-time by design, because one buffer
// and one bus controller of each kind cannot service overlapping
// operations.
type Dispatcher struct {
	i2c    bus.I2C
	spi    bus.SPI
	gpio   bus.GPIO
	waiter *edgeWaiter

	cfg     Config
	version wire.VersionInfo

	// Working buffer, reused for frame decode and for staging bus read
	// results. Valid only until the next frame is read.
	buf     [wire.MaxMessageSize]byte
	scratch []byte

	logger *slog.Logger
	raw    log.RawLogger
}

// New builds a Dispatcher over the given bus adapters.
func New(i2c bus.I2C, spi bus.SPI, gpio bus.GPIO, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		i2c:     i2c,
		spi:     spi,
		gpio:    gpio,
		waiter:  newEdgeWaiter(gpio, 0),
		cfg:     DefaultConfig(),
		version: version.Info(),
		scratch: make([]byte, 0, wire.MaxMessageSize),
		logger:  slog.Default(),
		raw:     log.NewRaw(nil),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Config returns the current bus configuration.
func (d *Dispatcher) Config() Config { return d.cfg }

// Serve reads frames from conn and services them to completion, one at
// a time, until the connection fails or ctx is cancelled. A request
// that cannot be decoded or routed produces an error response frame;
// the connection survives. Only transport errors end the loop.
func (d *Dispatcher) Serve(ctx context.Context, conn wire.PacketConn) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := wire.ReadMessage(conn, d.buf[:])
		if err != nil {
			if err == wire.ErrMessageTooLarge {
				d.logger.Warn("oversized request frame rejected")
				if werr := wire.WriteMessage(conn, d.reject(wire.RejectOversize)); werr != nil {
					return werr
				}
				continue
			}
			return err
		}
		d.raw.Log(true, d.buf[:n])
		resp := d.dispatch(ctx, d.buf[:n])
		d.raw.Log(false, resp)
		if err := wire.WriteMessage(conn, resp); err != nil {
			return err
		}
	}
}

// dispatch routes one reassembled request frame and returns the
// response frame. The returned slice aliases the dispatcher's scratch
// buffer.
func (d *Dispatcher) dispatch(ctx context.Context, msg []byte) []byte {
	key, body, err := wire.SplitFrame(msg)
	if err != nil {
		d.logger.Warn("short frame", "error", err)
		return d.reject(wire.RejectBadBody)
	}
	dec := wire.NewDecoder(body)

	switch key {
	case wire.Ping.Key:
		v, err := dec.U32()
		if err != nil {
			return d.badBody(wire.Ping, err)
		}
		d.logger.Debug("ping", "value", v)
		return d.respond(wire.Ping, func(e *wire.Encoder) { e.U32(v) })

	case wire.I2cRead.Key:
		var req wire.I2cReadRequest
		if err := req.Decode(dec); err != nil {
			return d.badBody(wire.I2cRead, err)
		}
		return d.i2cRead(&req)

	case wire.I2cWrite.Key:
		var req wire.I2cWriteRequest
		if err := req.Decode(dec); err != nil {
			return d.badBody(wire.I2cWrite, err)
		}
		if err := d.i2c.Write(req.Address, req.Contents); err != nil {
			d.logger.Debug("i2c write failed", "addr", req.Address, "error", err)
			return d.fail(wire.I2cWrite)
		}
		return d.ok(wire.I2cWrite)

	case wire.SpiRead.Key:
		var req wire.SpiReadRequest
		if err := req.Decode(dec); err != nil {
			return d.badBody(wire.SpiRead, err)
		}
		return d.spiRead(&req)

	case wire.SpiWrite.Key:
		var req wire.SpiWriteRequest
		if err := req.Decode(dec); err != nil {
			return d.badBody(wire.SpiWrite, err)
		}
		if err := d.spi.Write(req.Contents); err != nil {
			d.logger.Debug("spi write failed", "error", err)
			return d.fail(wire.SpiWrite)
		}
		return d.ok(wire.SpiWrite)

	case wire.SpiFlush.Key:
		if err := d.spi.Flush(); err != nil {
			d.logger.Debug("spi flush failed", "error", err)
			return d.fail(wire.SpiFlush)
		}
		return d.ok(wire.SpiFlush)

	case wire.GpioGet.Key:
		var req wire.GpioGetRequest
		if err := req.Decode(dec); err != nil {
			return d.badBody(wire.GpioGet, err)
		}
		if req.Pin >= bus.NumPins {
			return d.fail(wire.GpioGet)
		}
		state, err := d.gpio.Get(req.Pin)
		if err != nil {
			return d.fail(wire.GpioGet)
		}
		return d.respondOk(wire.GpioGet, func(e *wire.Encoder) { e.U8(uint8(state)) })

	case wire.GpioPut.Key:
		var req wire.GpioPutRequest
		if err := req.Decode(dec); err != nil {
			return d.badBody(wire.GpioPut, err)
		}
		if req.Pin >= bus.NumPins {
			return d.fail(wire.GpioPut)
		}
		if err := d.gpio.Put(req.Pin, req.State); err != nil {
			return d.fail(wire.GpioPut)
		}
		return d.ok(wire.GpioPut)

	case wire.GpioWaitForHigh.Key:
		return d.gpioWait(ctx, dec, wire.GpioWaitForHigh, WaitHigh)
	case wire.GpioWaitForLow.Key:
		return d.gpioWait(ctx, dec, wire.GpioWaitForLow, WaitLow)
	case wire.GpioWaitForRising.Key:
		return d.gpioWait(ctx, dec, wire.GpioWaitForRising, WaitRising)
	case wire.GpioWaitForFalling.Key:
		return d.gpioWait(ctx, dec, wire.GpioWaitForFalling, WaitFalling)
	case wire.GpioWaitForAny.Key:
		return d.gpioWait(ctx, dec, wire.GpioWaitForAny, WaitAny)

	case wire.SetConfiguration.Key:
		var req wire.SetConfigRequest
		if err := req.Decode(dec); err != nil {
			return d.badBody(wire.SetConfiguration, err)
		}
		return d.setConfig(&req)

	case wire.Version.Key:
		d.logger.Debug("version", "version", d.version.String())
		v := d.version
		return d.respond(wire.Version, v.Encode)

	default:
		d.logger.Warn("unknown endpoint key", "key", key)
		return d.reject(wire.RejectUnknownKey)
	}
}

func (d *Dispatcher) i2cRead(req *wire.I2cReadRequest) []byte {
	// A count beyond the working buffer must be rejected with the
	// failure marker, never truncated and never allowed to overrun.
	if int(req.Count) > d.readCapacity() {
		d.logger.Warn("i2c read count exceeds working buffer", "count", req.Count)
		return d.fail(wire.I2cRead)
	}
	data := d.buf[:req.Count]
	if err := d.i2c.Read(req.Address, data); err != nil {
		d.logger.Debug("i2c read failed", "addr", req.Address, "error", err)
		return d.fail(wire.I2cRead)
	}
	return d.respondOk(wire.I2cRead, func(e *wire.Encoder) { e.Blob(data) })
}

func (d *Dispatcher) spiRead(req *wire.SpiReadRequest) []byte {
	if int(req.Count) > d.readCapacity() {
		d.logger.Warn("spi read count exceeds working buffer", "count", req.Count)
		return d.fail(wire.SpiRead)
	}
	data := d.buf[:req.Count]
	if err := d.spi.Read(data); err != nil {
		d.logger.Debug("spi read failed", "error", err)
		return d.fail(wire.SpiRead)
	}
	return d.respondOk(wire.SpiRead, func(e *wire.Encoder) { e.Blob(data) })
}

// readCapacity bounds a staged bus read so the response frame (key,
// discriminant, length prefix, data) still fits one message.
func (d *Dispatcher) readCapacity() int {
	return wire.MaxMessageSize - wire.KeySize - 8
}

func (d *Dispatcher) gpioWait(ctx context.Context, dec *wire.Decoder, ep wire.Endpoint, cond WaitCondition) []byte {
	var req wire.GpioWaitRequest
	if err := req.Decode(dec); err != nil {
		return d.badBody(ep, err)
	}
	if req.Pin >= bus.NumPins {
		return d.fail(ep)
	}
	d.logger.Debug("gpio wait", "pin", req.Pin, "cond", cond.String())
	if err := d.waiter.wait(ctx, req.Pin, cond); err != nil {
		d.logger.Debug("gpio wait failed", "pin", req.Pin, "error", err)
		return d.fail(ep)
	}
	return d.ok(ep)
}

// setConfig applies the I2C and SPI configurations independently; both
// register writes are attempted even when the first fails, and any
// failure is reported. A failure therefore signals "at least one config
// write failed", not necessarily both.
func (d *Dispatcher) setConfig(req *wire.SetConfigRequest) []byte {
	i2cErr := d.i2c.SetFrequency(req.I2cFrequency)
	spiErr := d.spi.Configure(req.SpiFrequency, req.SpiPhase, req.SpiPolarity)
	if i2cErr == nil {
		d.cfg.I2cFrequency = req.I2cFrequency
	}
	if spiErr == nil {
		d.cfg.SpiFrequency = req.SpiFrequency
		d.cfg.SpiPhase = req.SpiPhase
		d.cfg.SpiPolarity = req.SpiPolarity
	}
	if i2cErr != nil || spiErr != nil {
		d.logger.Warn("set-config partially failed", "i2c_error", i2cErr, "spi_error", spiErr)
		return d.fail(wire.SetConfiguration)
	}
	d.logger.Info("bus configuration applied",
		"i2c_hz", req.I2cFrequency, "spi_hz", req.SpiFrequency,
		"spi_phase", uint8(req.SpiPhase), "spi_polarity", uint8(req.SpiPolarity))
	return d.ok(wire.SetConfiguration)
}

// respond builds an infallible response frame: key followed by the bare
// body.
func (d *Dispatcher) respond(ep wire.Endpoint, encode func(*wire.Encoder)) []byte {
	e := wire.NewEncoder(wire.AppendFrame(d.scratch[:0], ep.Key, nil))
	encode(e)
	return e.Bytes()
}

// respondOk builds a fallible response frame carrying a success body.
func (d *Dispatcher) respondOk(ep wire.Endpoint, encode func(*wire.Encoder)) []byte {
	e := wire.NewEncoder(wire.AppendFrame(d.scratch[:0], ep.Key, nil))
	wire.EncodeOk(e)
	encode(e)
	return e.Bytes()
}

// ok builds a fallible response frame with an empty success body.
func (d *Dispatcher) ok(ep wire.Endpoint) []byte {
	e := wire.NewEncoder(wire.AppendFrame(d.scratch[:0], ep.Key, nil))
	wire.EncodeOk(e)
	return e.Bytes()
}

// fail builds the endpoint's failure marker frame. No diagnostic
// payload crosses the wire; the marker carries only the kind.
func (d *Dispatcher) fail(ep wire.Endpoint) []byte {
	e := wire.NewEncoder(wire.AppendFrame(d.scratch[:0], ep.Key, nil))
	wire.EncodeErr(e)
	return e.Bytes()
}

// reject builds an error-path frame for requests that could not be
// decoded or routed at all.
func (d *Dispatcher) reject(reason wire.RejectReason) []byte {
	e := wire.NewEncoder(wire.AppendFrame(d.scratch[:0], wire.Error.Key, nil))
	e.U8(uint8(reason))
	return e.Bytes()
}

func (d *Dispatcher) badBody(ep wire.Endpoint, err error) []byte {
	d.logger.Warn("undecodable request body", "path", ep.Path, "error", err)
	return d.reject(wire.RejectBadBody)
}
