package version_test

import (
	"testing"

	"github.com/picodegallo/gallo/version"

	"github.com/stretchr/testify/assert"
)

func TestInfoMatchesConstants(t *testing.T) {
	v := version.Info()
	assert.Equal(t, version.Major, v.Major)
	assert.Equal(t, version.Minor, v.Minor)
	assert.Equal(t, version.Patch, v.Patch)
}

func TestStringIsDottedTriple(t *testing.T) {
	assert.Regexp(t, `^\d+\.\d+\.\d+$`, version.String())
}
