//go:build !windows

package restic

import (
	"context"
	"os/exec"
)

// ProgramName is the file name of the restic executable.
const ProgramName = "restic"

// RcloneProgramName is the file name of the rclone executable.
const RcloneProgramName = "rclone"

func newCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
