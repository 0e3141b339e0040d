//go:build windows

package restic

import (
	"context"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// ProgramName is the file name of the restic executable.
const ProgramName = "restic.exe"

// RcloneProgramName is the file name of the rclone executable.
const RcloneProgramName = "rclone.exe"

// newCommand creates a command which does not pop up a console window.
func newCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
	return cmd
}
