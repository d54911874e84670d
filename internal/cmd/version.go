package cmd

import (
	"fmt"
	"log/slog"

	"github.com/picodegallo/gallo/version"
)

// Version prints the host version and, when a device is reachable, the
// device's compiled-in version.
type Version struct {
	Host bool `help:"Print only the host version, without touching the device"`
}

func (v *Version) Run(cli *CLI, logger *slog.Logger) error {
	fmt.Printf("host:   %s\n", version.String())
	if v.Host {
		return nil
	}
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	info, err := c.Version()
	if err != nil {
		return err
	}
	fmt.Printf("device: %s\n", info.String())
	return nil
}

// Ping round-trips a value through the device.
type Ping struct {
	Value uint32 `arg:"" optional:"" default:"42" help:"Value to echo"`
}

func (p *Ping) Run(cli *CLI, logger *slog.Logger) error {
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	echo, err := c.Ping(p.Value)
	if err != nil {
		return err
	}
	if echo != p.Value {
		return fmt.Errorf("ping mismatch: sent %d, got %d", p.Value, echo)
	}
	fmt.Printf("pong %d\n", echo)
	return nil
}
