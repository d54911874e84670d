package cmd

import (
	"log/slog"

	"github.com/picodegallo/gallo/wire"
)

// SetConfig reconfigures both buses in one operation.
type SetConfig struct {
	I2cFrequency       uint32 `short:"i" required:"" help:"I2C bus frequency in Hz"`
	SpiFrequency       uint32 `short:"s" required:"" help:"SPI bus frequency in Hz"`
	SpiFirstTransition bool   `short:"p" help:"Capture on first SPI clock transition (default: second)"`
	SpiIdleLow         bool   `short:"o" help:"SPI clock idles low (default: high)"`
}

func (s *SetConfig) Run(cli *CLI, logger *slog.Logger) error {
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()

	phase := wire.CaptureOnSecondTransition
	if s.SpiFirstTransition {
		phase = wire.CaptureOnFirstTransition
	}
	polarity := wire.IdleHigh
	if s.SpiIdleLow {
		polarity = wire.IdleLow
	}

	if err := c.SetConfig(s.I2cFrequency, s.SpiFrequency, phase, polarity); err != nil {
		return err
	}
	logger.Info("bus configuration applied", "i2c_hz", s.I2cFrequency, "spi_hz", s.SpiFrequency)
	return nil
}
