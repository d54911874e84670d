package wire

import "fmt"

// PinState is a GPIO logic level.
type PinState uint8

const (
	Low  PinState = 0
	High PinState = 1
)

func (s PinState) String() string {
	if s == High {
		return "high"
	}
	return "low"
}

// SpiPhase selects the SPI clock edge on which data is captured.
type SpiPhase uint8

const (
	CaptureOnFirstTransition  SpiPhase = 0
	CaptureOnSecondTransition SpiPhase = 1
)

// SpiPolarity selects the SPI clock idle level.
type SpiPolarity uint8

const (
	IdleLow  SpiPolarity = 0
	IdleHigh SpiPolarity = 1
)

// I2cReadRequest asks for Count bytes from the device at Address.
type I2cReadRequest struct {
	Address uint8
	Count   uint16
}

func (r *I2cReadRequest) Encode(e *Encoder) {
	e.U8(r.Address)
	e.U16(r.Count)
}

func (r *I2cReadRequest) Decode(d *Decoder) (err error) {
	if r.Address, err = d.U8(); err != nil {
		return err
	}
	r.Count, err = d.U16()
	return err
}

// I2cWriteRequest writes Contents to the device at Address. Contents
// decoded on the device side is a view into the receive buffer, valid
// only until the next frame is read.
type I2cWriteRequest struct {
	Address  uint8
	Contents []byte
}

func (r *I2cWriteRequest) Encode(e *Encoder) {
	e.U8(r.Address)
	e.Blob(r.Contents)
}

func (r *I2cWriteRequest) Decode(d *Decoder) (err error) {
	if r.Address, err = d.U8(); err != nil {
		return err
	}
	r.Contents, err = d.Blob()
	return err
}

// SpiReadRequest asks for Count bytes from the SPI bus. SPI is
// addressless on this device.
type SpiReadRequest struct {
	Count uint16
}

func (r *SpiReadRequest) Encode(e *Encoder) { e.U16(r.Count) }

func (r *SpiReadRequest) Decode(d *Decoder) (err error) {
	r.Count, err = d.U16()
	return err
}

// SpiWriteRequest writes Contents to the SPI bus.
type SpiWriteRequest struct {
	Contents []byte
}

func (r *SpiWriteRequest) Encode(e *Encoder) { e.Blob(r.Contents) }

func (r *SpiWriteRequest) Decode(d *Decoder) (err error) {
	r.Contents, err = d.Blob()
	return err
}

// GpioGetRequest samples the level of a pin, forcing it to input mode.
type GpioGetRequest struct {
	Pin uint8
}

func (r *GpioGetRequest) Encode(e *Encoder) { e.U8(r.Pin) }

func (r *GpioGetRequest) Decode(d *Decoder) (err error) {
	r.Pin, err = d.U8()
	return err
}

// GpioPutRequest drives a pin to State, forcing it to output mode.
type GpioPutRequest struct {
	Pin   uint8
	State PinState
}

func (r *GpioPutRequest) Encode(e *Encoder) {
	e.U8(r.Pin)
	e.U8(uint8(r.State))
}

func (r *GpioPutRequest) Decode(d *Decoder) error {
	pin, err := d.U8()
	if err != nil {
		return err
	}
	st, err := d.U8()
	if err != nil {
		return err
	}
	if st > uint8(High) {
		return fmt.Errorf("wire: invalid pin state %d", st)
	}
	r.Pin = pin
	r.State = PinState(st)
	return nil
}

// GpioWaitRequest suspends the handler until a level or edge condition is
// observed on Pin. Shared by all five wait endpoints; the endpoint key
// carries the condition.
type GpioWaitRequest struct {
	Pin uint8
}

func (r *GpioWaitRequest) Encode(e *Encoder) { e.U8(r.Pin) }

func (r *GpioWaitRequest) Decode(d *Decoder) (err error) {
	r.Pin, err = d.U8()
	return err
}

// SetConfigRequest reconfigures both buses atomically from the caller's
// point of view: a failure of either sub-application is reported as a
// failure of the whole operation.
type SetConfigRequest struct {
	I2cFrequency uint32
	SpiFrequency uint32
	SpiPhase     SpiPhase
	SpiPolarity  SpiPolarity
}

func (r *SetConfigRequest) Encode(e *Encoder) {
	e.U32(r.I2cFrequency)
	e.U32(r.SpiFrequency)
	e.U8(uint8(r.SpiPhase))
	e.U8(uint8(r.SpiPolarity))
}

func (r *SetConfigRequest) Decode(d *Decoder) error {
	i2cf, err := d.U32()
	if err != nil {
		return err
	}
	spif, err := d.U32()
	if err != nil {
		return err
	}
	ph, err := d.U8()
	if err != nil {
		return err
	}
	if ph > uint8(CaptureOnSecondTransition) {
		return fmt.Errorf("wire: invalid spi phase %d", ph)
	}
	po, err := d.U8()
	if err != nil {
		return err
	}
	if po > uint8(IdleHigh) {
		return fmt.Errorf("wire: invalid spi polarity %d", po)
	}
	r.I2cFrequency = i2cf
	r.SpiFrequency = spif
	r.SpiPhase = SpiPhase(ph)
	r.SpiPolarity = SpiPolarity(po)
	return nil
}

// VersionInfo is the compiled-in firmware version triple.
type VersionInfo struct {
	Major uint16
	Minor uint16
	Patch uint32
}

func (v *VersionInfo) Encode(e *Encoder) {
	e.U16(v.Major)
	e.U16(v.Minor)
	e.U32(v.Patch)
}

func (v *VersionInfo) Decode(d *Decoder) error {
	ma, err := d.U16()
	if err != nil {
		return err
	}
	mi, err := d.U16()
	if err != nil {
		return err
	}
	pa, err := d.U32()
	if err != nil {
		return err
	}
	v.Major, v.Minor, v.Patch = ma, mi, pa
	return nil
}

func (v *VersionInfo) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
