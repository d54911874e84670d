package cmd

import (
	"strings"
	"testing"

	"github.com/picodegallo/gallo/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseByte(t *testing.T) {
	tests := []struct {
		in      string
		want    uint8
		wantErr bool
	}{
		{"0", 0, false},
		{"42", 42, false},
		{"255", 255, false},
		{"0x2a", 0x2a, false},
		{"0XFF", 0xff, false},
		{"0b101", 5, false},
		{"0B11111111", 255, false},
		{"256", 0, true},
		{"0x100", 0, true},
		{"0b", 0, true},
		{"", 0, true},
		{"zz", 0, true},
	}
	for _, tt := range tests {
		got, err := parseByte(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestByteUnmarshalText(t *testing.T) {
	var b Byte
	require.NoError(t, b.UnmarshalText([]byte("0x68")))
	assert.Equal(t, Byte(0x68), b)
	assert.Error(t, b.UnmarshalText([]byte("300")))
}

func TestDump(t *testing.T) {
	out := dump([]byte{0x00, 0x01, 0xff})
	assert.Equal(t, "00 01 ff \n", out)

	// 17 bytes wrap onto a second line.
	out = dump(make([]byte, 17))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Repeat("00 ", 16), lines[0])
	assert.Equal(t, "00 ", lines[1])
}

func TestFormatScanTable(t *testing.T) {
	var entries [128]client.ScanEntry
	for addr := 0; addr < 128; addr++ {
		entries[addr] = client.ScanAbsent
	}
	for addr := 0; addr <= 0x07; addr++ {
		entries[addr] = client.ScanSkipped
	}
	for addr := 0x78; addr <= 0x7f; addr++ {
		entries[addr] = client.ScanSkipped
	}
	entries[0x42] = client.ScanPresent

	out := FormatScanTable(entries)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 9, "header plus eight rows")
	assert.True(t, strings.HasPrefix(lines[0], "   0  1  2"))

	// Reserved cells in the first row, a hit in row 4.
	assert.True(t, strings.HasPrefix(lines[1], "0 RR RR RR RR RR RR RR RR -- "))
	assert.Contains(t, lines[5], "42")
	// The last row ends with the reserved top range.
	assert.True(t, strings.HasSuffix(strings.TrimRight(lines[8], " "), "RR"))
}
