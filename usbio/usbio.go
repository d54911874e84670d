// Package usbio opens the bridge device over USB and exposes its bulk
// endpoint pair as a wire.PacketConn. Enumeration, interface claiming
// and transfer scheduling are libusb's problem (via gousb); this
// package only locates the device and moves packets.
package usbio

import (
	"errors"
	"fmt"

	"github.com/google/gousb"

	"github.com/picodegallo/gallo/wire"
)

// Device identity constants.
const (
	VendorID  = 0x045e
	ProductID = 0x067d
)

// Bulk endpoint numbers of the bridge function.
const (
	epOut = 1
	epIn  = 1
)

// ErrNotFound is returned when no attached device matches.
var ErrNotFound = errors.New("usbio: no matching device attached")

// Options narrows device discovery.
type Options struct {
	// SerialNumber, when non-empty, disambiguates multiple attached
	// units.
	SerialNumber string
	// VendorID/ProductID override the defaults when non-zero.
	VendorID  uint16
	ProductID uint16
}

// Conn is an open USB connection to the bridge. It implements
// wire.PacketConn: every ReadPacket maps to one bulk IN transfer of at
// most wire.MaxPacketSize bytes.
type Conn struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	cfg    *gousb.Config
	intf   *gousb.Interface
	in     *gousb.InEndpoint
	out    *gousb.OutEndpoint
	serial string
}

// Open locates the device by vendor and product ID (optionally filtered
// by serial number), claims its interface and opens the bulk endpoint
// pair. The device serves exactly one logical connection; a second Open
// against the same unit fails at interface-claim time.
func Open(opts Options) (*Conn, error) {
	vid := gousb.ID(VendorID)
	pid := gousb.ID(ProductID)
	if opts.VendorID != 0 {
		vid = gousb.ID(opts.VendorID)
	}
	if opts.ProductID != 0 {
		pid = gousb.ID(opts.ProductID)
	}

	ctx := gousb.NewContext()
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vid && desc.Product == pid
	})
	if err != nil {
		// OpenDevices can return partial results alongside an error;
		// only fail when nothing usable came back.
		if len(devs) == 0 {
			_ = ctx.Close()
			return nil, fmt.Errorf("usbio: enumerate devices: %w", err)
		}
	}
	if len(devs) == 0 {
		_ = ctx.Close()
		return nil, ErrNotFound
	}

	var dev *gousb.Device
	for _, d := range devs {
		if opts.SerialNumber != "" {
			sn, err := d.SerialNumber()
			if err != nil || sn != opts.SerialNumber {
				_ = d.Close()
				continue
			}
		}
		if dev == nil {
			dev = d
		} else {
			_ = d.Close()
		}
	}
	if dev == nil {
		_ = ctx.Close()
		return nil, ErrNotFound
	}

	if err := dev.SetAutoDetach(true); err != nil {
		_ = dev.Close()
		_ = ctx.Close()
		return nil, fmt.Errorf("usbio: auto-detach: %w", err)
	}

	cfg, err := dev.Config(1)
	if err != nil {
		_ = dev.Close()
		_ = ctx.Close()
		return nil, fmt.Errorf("usbio: claim config: %w", err)
	}
	intf, err := cfg.Interface(0, 0)
	if err != nil {
		_ = cfg.Close()
		_ = dev.Close()
		_ = ctx.Close()
		return nil, fmt.Errorf("usbio: claim interface: %w", err)
	}
	in, err := intf.InEndpoint(epIn)
	if err != nil {
		intf.Close()
		_ = cfg.Close()
		_ = dev.Close()
		_ = ctx.Close()
		return nil, fmt.Errorf("usbio: open IN endpoint: %w", err)
	}
	out, err := intf.OutEndpoint(epOut)
	if err != nil {
		intf.Close()
		_ = cfg.Close()
		_ = dev.Close()
		_ = ctx.Close()
		return nil, fmt.Errorf("usbio: open OUT endpoint: %w", err)
	}

	serial, _ := dev.SerialNumber()
	return &Conn{ctx: ctx, dev: dev, cfg: cfg, intf: intf, in: in, out: out, serial: serial}, nil
}

// SerialNumber returns the serial string of the opened unit, if it has
// one.
func (c *Conn) SerialNumber() string { return c.serial }

// ReadPacket receives one bulk IN packet.
func (c *Conn) ReadPacket(buf []byte) (int, error) {
	if len(buf) > wire.MaxPacketSize {
		buf = buf[:wire.MaxPacketSize]
	}
	return c.in.Read(buf)
}

// WritePacket sends one bulk OUT packet.
func (c *Conn) WritePacket(p []byte) error {
	if len(p) > wire.MaxPacketSize {
		return fmt.Errorf("usbio: packet length %d exceeds max packet size", len(p))
	}
	n, err := c.out.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("usbio: short bulk write (%d of %d bytes)", n, len(p))
	}
	return nil
}

// Close releases the interface, configuration, device and libusb
// context, in that order.
func (c *Conn) Close() error {
	c.intf.Close()
	err := c.cfg.Close()
	if derr := c.dev.Close(); err == nil {
		err = derr
	}
	if cerr := c.ctx.Close(); err == nil {
		err = cerr
	}
	return err
}
