//go:build !linux

package cmd

import (
	"errors"
	"log/slog"
)

var errUdevUnsupported = errors.New("udev rules are only applicable on Linux")

func udevInstall(*slog.Logger) error   { return errUdevUnsupported }
func udevUninstall(*slog.Logger) error { return errUdevUnsupported }
