// Package cmd defines the gallo command tree. Commands talk to a real
// device over USB by default, or to a bridge dev server over TCP when
// --addr is given.
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/picodegallo/gallo/client"
	"github.com/picodegallo/gallo/internal/log"
	"github.com/picodegallo/gallo/usbio"
)

// CLI is the root command structure parsed by kong.
type CLI struct {
	Log struct {
		Level   string `help:"Log level (trace, debug, info, warn, error)" default:"info" env:"GALLO_LOG_LEVEL"`
		File    string `help:"Log to file instead of stdout/stderr" env:"GALLO_LOG_FILE"`
		RawFile string `help:"Write raw frame hex dumps to file" env:"GALLO_LOG_RAW_FILE"`
	} `embed:"" prefix:"log."`

	// ConfigFile is consumed before kong parsing to seed the config
	// loaders; it is declared here so kong accepts the flag.
	ConfigFile string `name:"config" help:"Path to a configuration file" env:"GALLO_CONFIG"`

	Addr   string `help:"Connect to a bridge dev server at host:port instead of USB" env:"GALLO_ADDR"`
	Serial string `help:"Select the USB device with this serial number" env:"GALLO_SERIAL"`

	Ping      Ping          `cmd:"" help:"Round-trip a value through the device"`
	I2c       I2cCmd        `cmd:"" help:"I2C accessor"`
	Spi       SpiCmd        `cmd:"" help:"SPI accessor"`
	Gpio      GpioCmd       `cmd:"" help:"GPIO accessor"`
	SetConfig SetConfig     `cmd:"" name:"set-config" help:"Configure I2C and SPI bus parameters"`
	Version   Version       `cmd:"" help:"Report device and host versions"`
	Serve     Serve         `cmd:"" help:"Run a bridge dev server with simulated buses"`
	Config    ConfigCommand `cmd:"" help:"Configuration file helpers"`
	Udev      UdevCommand   `cmd:"" help:"Manage the udev rule for unprivileged USB access"`

	raw log.RawLogger
}

// SetRawLogger routes frame hex traces from connections the commands
// open.
func (c *CLI) SetRawLogger(rl log.RawLogger) { c.raw = rl }

// connect opens the device connection shared by every accessor command.
func (c *CLI) connect() (*client.Client, error) {
	var t *client.PacketTransport
	if c.Addr != "" {
		var err error
		t, err = client.DialTransport(c.Addr)
		if err != nil {
			return nil, fmt.Errorf("connect to %s: %w", c.Addr, err)
		}
	} else {
		conn, err := usbio.Open(usbio.Options{SerialNumber: c.Serial})
		if err != nil {
			return nil, err
		}
		t = client.NewPacketTransport(conn)
	}
	if c.raw != nil {
		t.SetRawLogger(c.raw)
	}
	return client.New(t), nil
}

// Byte is a CLI byte argument accepting decimal, 0x hex, or 0b binary.
type Byte uint8

func (b *Byte) UnmarshalText(text []byte) error {
	v, err := parseByte(string(text))
	if err != nil {
		return err
	}
	*b = Byte(v)
	return nil
}

func parseByte(s string) (uint8, error) {
	var v uint64
	var err error
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseUint(s[2:], 16, 8)
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		v, err = strconv.ParseUint(s[2:], 2, 8)
	default:
		v, err = strconv.ParseUint(s, 10, 8)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", s)
	}
	return uint8(v), nil
}

func bytesOf(in []Byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = byte(b)
	}
	return out
}

// dump prints bytes as hex, sixteen per line, like the device tools
// people already have.
func dump(p []byte) string {
	var sb strings.Builder
	for i, b := range p {
		if i > 0 && i%16 == 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%02x ", b)
	}
	sb.WriteByte('\n')
	return sb.String()
}
