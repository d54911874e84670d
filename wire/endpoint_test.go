package wire_test

import (
	"testing"

	"github.com/picodegallo/gallo/wire"

	"github.com/stretchr/testify/assert"
)

// Keys are part of the wire format: a host built from one revision must
// route against a device built from another. These values are pinned so
// an accidental change to the hash or the paths fails loudly.
func TestKeysAreStable(t *testing.T) {
	want := map[string]uint32{
		"ping":              0x165df089,
		"i2c/read":          0x4292a668,
		"i2c/write":         0x79e9c443,
		"spi/read":          0x8cad35fe,
		"spi/write":         0x29d2daa1,
		"spi/flush":         0xfff2a468,
		"gpio/get":          0xfa2cc7a9,
		"gpio/put":          0xce3367b4,
		"gpio/wait-high":    0x20d50ba1,
		"gpio/wait-low":     0xb5a7bfad,
		"gpio/wait-rising":  0xb35b6cd7,
		"gpio/wait-falling": 0xe264d594,
		"gpio/wait-any":     0x25ecf9a9,
		"set-config":        0x21a8cba4,
		"version":           0x4671ae97,
		"error":             0x21918751,
	}
	for path, key := range want {
		assert.Equal(t, key, wire.KeyFor(path), "key for %q", path)
	}
	assert.Equal(t, wire.KeyFor("ping"), wire.Ping.Key)
	assert.Equal(t, wire.KeyFor("error"), wire.Error.Key)
}

func TestEndpointKeysAreUnique(t *testing.T) {
	seen := make(map[uint32]string)
	all := append([]wire.Endpoint{wire.Error}, wire.Endpoints...)
	for _, ep := range all {
		if prev, dup := seen[ep.Key]; dup {
			t.Fatalf("key collision between %q and %q", prev, ep.Path)
		}
		seen[ep.Key] = ep.Path
	}
	assert.Len(t, seen, len(wire.Endpoints)+1)
}

func TestEndpointsExcludeErrorPath(t *testing.T) {
	for _, ep := range wire.Endpoints {
		assert.NotEqual(t, wire.Error.Key, ep.Key)
	}
}
