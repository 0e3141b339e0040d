// Package procgroup tracks running engine processes by group name so that a
// new request can supersede every older request of the same group.
package procgroup

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Terminator abstracts the platform specific way of ending a process.
type Terminator interface {
	// Terminate asks the OS to end the process with the given pid.
	Terminate(pid int) error
	// WasTerminated reports whether the exit state matches a termination
	// issued through Terminate.
	WasTerminated(state *os.ProcessState) bool
}

// Registry maps group names to the pids of their running processes. It is
// safe for concurrent use; the lock only guards the map and is never held
// while a process is spawned, signalled or waited for.
//
// Pids terminated through the registry stay marked until they are
// deregistered, so the launcher can tell a process it ended from one which
// failed on its own. restic handles SIGTERM and exits with status 130, so the
// exit state alone does not tell.
type Registry struct {
	mu         sync.RWMutex
	groups     map[string][]int
	terminated map[int]struct{}
	term       Terminator
	log        logrus.FieldLogger
}

// NewRegistry creates an empty registry. A nil terminator selects the
// platform default, a nil logger the logrus standard logger.
func NewRegistry(term Terminator, log logrus.FieldLogger) *Registry {
	if term == nil {
		term = SystemTerminator()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		groups:     make(map[string][]int),
		terminated: make(map[int]struct{}),
		term:       term,
		log:        log,
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process wide registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(nil, nil)
	})
	return defaultRegistry
}

// Terminator returns the terminator used by TerminateGroup.
func (r *Registry) Terminator() Terminator {
	return r.term
}

// Register adds pid to group.
func (r *Registry) Register(group string, pid int) {
	r.log.WithFields(logrus.Fields{"group": group, "pid": pid}).Debug("process started")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group] = append(r.groups[group], pid)
}

// Deregister removes pid from group and reports whether the process was
// terminated through the registry. Removing an unknown pid is a no-op. An
// empty group only clears the termination mark of pid.
func (r *Registry) Deregister(group string, pid int) bool {
	r.log.WithFields(logrus.Fields{"group": group, "pid": pid}).Debug("process finished")
	r.mu.Lock()
	defer r.mu.Unlock()
	_, terminated := r.terminated[pid]
	delete(r.terminated, pid)
	pids, ok := r.groups[group]
	if !ok {
		return terminated
	}
	kept := pids[:0]
	for _, p := range pids {
		if p != pid {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		delete(r.groups, group)
		return terminated
	}
	r.groups[group] = kept
	return terminated
}

// Terminate marks pid as terminated and asks it to end. Processes ended this
// way report true from Deregister.
func (r *Registry) Terminate(pid int) error {
	r.mu.Lock()
	r.terminated[pid] = struct{}{}
	r.mu.Unlock()
	r.log.WithField("pid", pid).Info("killing process")
	return r.term.Terminate(pid)
}

// TerminateGroup takes the current pid list of group, clears it and asks every
// process in it to terminate. Pids registered after the list was taken are
// left alone. Termination failures are logged, not returned: the process may
// already have exited on its own.
func (r *Registry) TerminateGroup(group string) {
	r.mu.Lock()
	pids := r.groups[group]
	delete(r.groups, group)
	for _, pid := range pids {
		r.terminated[pid] = struct{}{}
	}
	r.mu.Unlock()

	if len(pids) == 0 {
		return
	}
	r.log.WithField("group", group).Debugf("terminating %d processes", len(pids))
	for _, pid := range pids {
		r.log.WithField("pid", pid).Info("killing process")
		if err := r.term.Terminate(pid); err != nil {
			r.log.WithField("pid", pid).Warnf("failed to kill process: %v", err)
		}
	}
}

// PIDs returns a copy of the pids currently registered for group.
func (r *Registry) PIDs(group string) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pids := r.groups[group]
	if len(pids) == 0 {
		return nil
	}
	out := make([]int, len(pids))
	copy(out, pids)
	return out
}

// Len returns the number of groups with at least one running process.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups)
}
