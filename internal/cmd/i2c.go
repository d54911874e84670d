package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/picodegallo/gallo/client"
)

// I2cCmd groups the I2C subcommands.
type I2cCmd struct {
	Read      I2cRead      `cmd:"" help:"Read bytes from a device"`
	Write     I2cWrite     `cmd:"" help:"Write bytes to a device"`
	WriteRead I2cWriteRead `cmd:"" name:"write-read" help:"Write bytes, then read"`
	Scan      I2cScan      `cmd:"" help:"Scan the bus for devices"`
}

type I2cRead struct {
	Address Byte   `short:"a" required:"" help:"7-bit device address (decimal, 0x hex, or 0b binary)"`
	Count   uint16 `short:"c" required:"" help:"Number of bytes to read"`
}

func (r *I2cRead) Run(cli *CLI, logger *slog.Logger) error {
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	data, err := c.I2cRead(uint8(r.Address), r.Count)
	if err != nil {
		return err
	}
	fmt.Print(dump(data))
	return nil
}

type I2cWrite struct {
	Address Byte   `short:"a" required:"" help:"7-bit device address"`
	Bytes   []Byte `short:"b" required:"" help:"Bytes to write"`
}

func (w *I2cWrite) Run(cli *CLI, logger *slog.Logger) error {
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	return c.I2cWrite(uint8(w.Address), bytesOf(w.Bytes))
}

type I2cWriteRead struct {
	Address Byte   `short:"a" required:"" help:"7-bit device address"`
	Bytes   []Byte `short:"b" required:"" help:"Bytes to write"`
	Count   uint16 `short:"c" required:"" help:"Number of bytes to read back"`
}

func (w *I2cWriteRead) Run(cli *CLI, logger *slog.Logger) error {
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.I2cWrite(uint8(w.Address), bytesOf(w.Bytes)); err != nil {
		return err
	}
	data, err := c.I2cRead(uint8(w.Address), w.Count)
	if err != nil {
		return err
	}
	fmt.Print(dump(data))
	return nil
}

type I2cScan struct {
	Reserved bool `short:"r" help:"Probe reserved addresses too"`
}

func (s *I2cScan) Run(cli *CLI, logger *slog.Logger) error {
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	entries, err := c.Scan(s.Reserved)
	if err != nil {
		return err
	}
	fmt.Print(FormatScanTable(entries))
	return nil
}

// FormatScanTable renders the scan result as the usual 16-column
// address table: the address when a device answered, "--" when nothing
// did, "RR" for reserved addresses that were skipped.
func FormatScanTable(entries [128]client.ScanEntry) string {
	var sb strings.Builder
	sb.WriteString("   0  1  2  3  4  5  6  7  8  9  a  b  c  d  e  f\n")
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&sb, "%x ", row)
		for col := 0; col < 16; col++ {
			addr := row*16 + col
			switch entries[addr] {
			case ScanCellPresent:
				fmt.Fprintf(&sb, "%02x ", addr)
			case ScanCellSkipped:
				sb.WriteString("RR ")
			default:
				sb.WriteString("-- ")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Local aliases so the table renderer reads cleanly.
const (
	ScanCellSkipped = client.ScanSkipped
	ScanCellPresent = client.ScanPresent
)
