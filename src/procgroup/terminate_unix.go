//go:build !windows

package procgroup

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type signalTerminator struct{}

// SystemTerminator returns the terminator for the running OS. On POSIX
// systems processes are sent SIGTERM.
func SystemTerminator() Terminator {
	return signalTerminator{}
}

func (signalTerminator) Terminate(pid int) error {
	if pid <= 0 {
		return errors.Errorf("invalid pid %d", pid)
	}
	return errors.Wrapf(unix.Kill(pid, unix.SIGTERM), "kill %d", pid)
}

func (signalTerminator) WasTerminated(state *os.ProcessState) bool {
	if state == nil {
		return false
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	return ok && ws.Signaled() && ws.Signal() == unix.SIGTERM
}
