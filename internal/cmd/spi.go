package cmd

import (
	"fmt"
	"log/slog"
)

// SpiCmd groups the SPI subcommands.
type SpiCmd struct {
	Read      SpiRead      `cmd:"" help:"Read bytes from the bus"`
	Write     SpiWrite     `cmd:"" help:"Write bytes to the bus"`
	WriteRead SpiWriteRead `cmd:"" name:"write-read" help:"Write bytes, then read"`
	Flush     SpiFlush     `cmd:"" help:"Drain the device's SPI transmit path"`
}

type SpiRead struct {
	Count uint16 `short:"c" required:"" help:"Number of bytes to read"`
}

func (r *SpiRead) Run(cli *CLI, logger *slog.Logger) error {
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	data, err := c.SpiRead(r.Count)
	if err != nil {
		return err
	}
	fmt.Print(dump(data))
	return nil
}

type SpiWrite struct {
	Bytes []Byte `short:"b" required:"" help:"Bytes to write"`
}

func (w *SpiWrite) Run(cli *CLI, logger *slog.Logger) error {
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	return c.SpiWrite(bytesOf(w.Bytes))
}

type SpiWriteRead struct {
	Bytes []Byte `short:"b" required:"" help:"Bytes to write"`
	Count uint16 `short:"c" required:"" help:"Number of bytes to read back"`
}

func (w *SpiWriteRead) Run(cli *CLI, logger *slog.Logger) error {
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.SpiWrite(bytesOf(w.Bytes)); err != nil {
		return err
	}
	data, err := c.SpiRead(w.Count)
	if err != nil {
		return err
	}
	fmt.Print(dump(data))
	return nil
}

type SpiFlush struct{}

func (f *SpiFlush) Run(cli *CLI, logger *slog.Logger) error {
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	return c.SpiFlush()
}
