package client_test

import (
	"sync"
	"testing"

	"github.com/picodegallo/gallo/client"
	"github.com/picodegallo/gallo/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scanResponder answers i2c/read probes: present addresses succeed,
// everything else gets the failure marker. It records which addresses
// were probed.
type scanResponder struct {
	mu      sync.Mutex
	present map[uint8]bool
	probed  []uint8
}

func (s *scanResponder) respond(req []byte) ([]byte, error) {
	key, body, err := wire.SplitFrame(req)
	if err != nil {
		return nil, err
	}
	if key != wire.I2cRead.Key {
		return nil, assert.AnError
	}
	var r wire.I2cReadRequest
	if err := r.Decode(wire.NewDecoder(body)); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.probed = append(s.probed, r.Address)
	s.mu.Unlock()

	e := wire.NewEncoder(wire.AppendFrame(nil, wire.I2cRead.Key, nil))
	if s.present[r.Address] {
		wire.EncodeOk(e)
		e.Blob([]byte{0x00})
	} else {
		wire.EncodeErr(e)
	}
	return e.Bytes(), nil
}

func TestScanSkipsReservedAddresses(t *testing.T) {
	resp := &scanResponder{present: map[uint8]bool{0x42: true, 0x68: true}}
	c := client.New(client.NewMockTransport(resp.respond))

	entries, err := c.Scan(false)
	require.NoError(t, err)

	assert.Equal(t, client.ScanPresent, entries[0x42])
	assert.Equal(t, client.ScanPresent, entries[0x68])
	assert.Equal(t, client.ScanAbsent, entries[0x30])

	// Reserved ranges are skipped without any bus transaction.
	for addr := uint8(0); addr <= 0x07; addr++ {
		assert.Equal(t, client.ScanSkipped, entries[addr], "addr %#02x", addr)
	}
	for addr := uint8(0x78); addr <= 0x7f; addr++ {
		assert.Equal(t, client.ScanSkipped, entries[addr], "addr %#02x", addr)
	}
	assert.Len(t, resp.probed, 128-16)
	for _, addr := range resp.probed {
		assert.False(t, addr <= 0x07 || addr >= 0x78, "reserved address %#02x was probed", addr)
	}
}

func TestScanReservedProbesEverything(t *testing.T) {
	resp := &scanResponder{present: map[uint8]bool{0x03: true}}
	c := client.New(client.NewMockTransport(resp.respond))

	entries, err := c.Scan(true)
	require.NoError(t, err)
	assert.Equal(t, client.ScanPresent, entries[0x03])
	assert.Len(t, resp.probed, 128)
}

func TestScanAbortsOnCommError(t *testing.T) {
	calls := 0
	c := client.New(client.NewMockTransport(func(req []byte) ([]byte, error) {
		calls++
		if calls > 3 {
			return nil, assert.AnError
		}
		key, _, _ := wire.SplitFrame(req)
		e := wire.NewEncoder(wire.AppendFrame(nil, key, nil))
		wire.EncodeErr(e)
		return e.Bytes(), nil
	}))

	_, err := c.Scan(false)
	require.Error(t, err)
	assert.False(t, client.IsEndpointFailure(err))
	assert.Equal(t, 4, calls, "scan should stop at the first comm error")
}
