package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMapFromServeCommand(t *testing.T) {
	root := buildMapFromStruct(reflect.TypeOf(Serve{}))

	sub, ok := root["serve"].(map[string]any)
	require.True(t, ok, "embedded server config nests under its prefix")
	assert.Equal(t, "127.0.0.1:3107", sub["addr"])
	assert.Equal(t, "100us", root["pollInterval"])
}

func TestConfigInitWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "serve.json")

	cmd := ConfigInit{Command: "serve", Format: "json", Output: dest}
	require.NoError(t, cmd.Run())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "serve")

	// Refuses to overwrite without --force.
	assert.Error(t, cmd.Run())
	cmd.Force = true
	assert.NoError(t, cmd.Run())
}

func TestNormalizeFormat(t *testing.T) {
	assert.Equal(t, "json", normalizeFormat("JSON"))
	assert.Equal(t, "yaml", normalizeFormat("yml"))
	assert.Equal(t, "toml", normalizeFormat("toml"))
	assert.Equal(t, "", normalizeFormat("ini"))
}
