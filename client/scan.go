package client

import "context"

// ScanEntry is the probe outcome for one I2C address.
type ScanEntry uint8

const (
	// ScanSkipped marks a reserved address that was not probed.
	ScanSkipped ScanEntry = iota
	// ScanAbsent means the probe ran and nothing acknowledged.
	ScanAbsent
	// ScanPresent means a device acknowledged the probe.
	ScanPresent
)

// reservedI2cAddress reports whether addr falls in the reserved ranges
// 0x00..0x07 and 0x78..0x7f.
func reservedI2cAddress(addr uint8) bool {
	return addr <= 0x07 || (addr >= 0x78 && addr <= 0x7f)
}

// Scan probes the 7-bit address space with one 1-byte read per address.
// Reserved addresses are skipped without a bus transaction unless
// reserved is true. A failure marker means "absent"; communication
// errors abort the scan.
func (c *Client) Scan(reserved bool) ([128]ScanEntry, error) {
	return c.ScanCtx(context.Background(), reserved)
}

func (c *Client) ScanCtx(ctx context.Context, reserved bool) ([128]ScanEntry, error) {
	var out [128]ScanEntry
	for addr := uint8(0); addr < 0x80; addr++ {
		if reservedI2cAddress(addr) && !reserved {
			out[addr] = ScanSkipped
			continue
		}
		_, err := c.I2cReadCtx(ctx, addr, 1)
		switch {
		case err == nil:
			out[addr] = ScanPresent
		case IsEndpointFailure(err):
			out[addr] = ScanAbsent
		default:
			return out, err
		}
	}
	return out, nil
}
