// Package version carries the compiled-in protocol version triple. The
// values may be overridden at link time:
//
//	go build -ldflags "-X github.com/picodegallo/gallo/version.override=1.2.3"
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/picodegallo/gallo/wire"
)

const (
	Major uint16 = 0
	Minor uint16 = 3
	Patch uint32 = 0
)

var override string

// Info returns the effective version triple.
func Info() wire.VersionInfo {
	v := wire.VersionInfo{Major: Major, Minor: Minor, Patch: Patch}
	if override != "" {
		if parsed, ok := parse(override); ok {
			v = parsed
		}
	}
	return v
}

// String returns the version in dotted form.
func String() string {
	v := Info()
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func parse(s string) (wire.VersionInfo, bool) {
	parts := strings.SplitN(strings.TrimPrefix(s, "v"), ".", 3)
	if len(parts) != 3 {
		return wire.VersionInfo{}, false
	}
	ma, err1 := strconv.ParseUint(parts[0], 10, 16)
	mi, err2 := strconv.ParseUint(parts[1], 10, 16)
	pa, err3 := strconv.ParseUint(parts[2], 10, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		return wire.VersionInfo{}, false
	}
	return wire.VersionInfo{Major: uint16(ma), Minor: uint16(mi), Patch: uint32(pa)}, true
}
