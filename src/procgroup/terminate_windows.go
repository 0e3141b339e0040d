//go:build windows

package procgroup

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// TerminatedExitCode is the exit code processes get when ended by Terminate.
const TerminatedExitCode = 288

type processTerminator struct{}

// SystemTerminator returns the terminator for the running OS. On Windows
// processes are ended with TerminateProcess and TerminatedExitCode.
func SystemTerminator() Terminator {
	return processTerminator{}
}

func (processTerminator) Terminate(pid int) error {
	if pid <= 0 {
		return errors.Errorf("invalid pid %d", pid)
	}
	handle, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return errors.Wrapf(err, "obtain handle to process %d", pid)
	}
	defer windows.CloseHandle(handle)
	if err := windows.TerminateProcess(handle, TerminatedExitCode); err != nil {
		return errors.Wrapf(err, "terminate process %d", pid)
	}
	return nil
}

func (processTerminator) WasTerminated(state *os.ProcessState) bool {
	return state != nil && uint32(state.ExitCode()) == TerminatedExitCode
}
