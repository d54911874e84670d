package cmd

import "log/slog"

// UdevCommand manages the udev rule that grants unprivileged access to
// the bridge's USB interface.
type UdevCommand struct {
	Install   UdevInstall   `cmd:"" help:"Install the udev rule (requires root)"`
	Uninstall UdevUninstall `cmd:"" help:"Remove the udev rule (requires root)"`
}

type UdevInstall struct{}

func (u *UdevInstall) Run(logger *slog.Logger) error { return udevInstall(logger) }

type UdevUninstall struct{}

func (u *UdevUninstall) Run(logger *slog.Logger) error { return udevUninstall(logger) }
