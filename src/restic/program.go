package restic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"restic-browser/src/procgroup"
)

var (
	// ErrNoBinary is returned when no restic binary is configured.
	ErrNoBinary = errors.New("no restic binary set")
	// ErrNoRepository is returned when an operation needs a repository but
	// the location is unset.
	ErrNoRepository = errors.New("no repository set")
	// ErrCancelled is returned when a command was terminated, either because
	// a newer command of the same group superseded it or because its context
	// was cancelled.
	ErrCancelled = errors.New("command got aborted")
)

// CommandError reports a restic command which exited with a non-zero status
// on its own. The message is restic's standard error output.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	if strings.TrimSpace(e.Stderr) != "" {
		return e.Stderr
	}
	return fmt.Sprintf("restic %s failed with exit code %d", strings.Join(e.Args, " "), e.ExitCode)
}

// waitDelay bounds how long Wait keeps collecting output after the process
// ended or was cancelled, e.g. when a child of restic still holds the pipes.
const waitDelay = 2 * time.Second

// Program runs restic commands against repository locations.
type Program struct {
	bin        BinaryInfo
	rclonePath string
	groups     *procgroup.Registry
	log        logrus.FieldLogger
}

// Option configures a Program.
type Option func(*Program)

// WithRclone sets the rclone executable passed to restic for rclone backed
// repositories.
func WithRclone(path string) Option {
	return func(p *Program) { p.rclonePath = path }
}

// WithRegistry sets the registry used for command groups. By default the
// process wide registry is used.
func WithRegistry(r *procgroup.Registry) Option {
	return func(p *Program) { p.groups = r }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Program) { p.log = l }
}

// NewProgram creates a Program for the given binary.
func NewProgram(bin BinaryInfo, opts ...Option) *Program {
	p := &Program{bin: bin}
	for _, opt := range opts {
		opt(p)
	}
	if p.groups == nil {
		p.groups = procgroup.Default()
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}
	return p
}

// Path returns the restic executable path.
func (p *Program) Path() string { return p.bin.Path }

// Version returns the restic version detected for the binary, if any.
func (p *Program) Version() Version { return p.bin.Version }

// Run runs restic with args against loc and returns its standard output.
//
// When group is not empty, all still running commands of the same group are
// terminated before the new command is started, so only the latest command of
// a group keeps running.
func (p *Program) Run(ctx context.Context, loc Location, args []string, group string) (string, error) {
	var stdout bytes.Buffer
	if err := p.run(ctx, loc, args, group, &stdout); err != nil {
		return "", err
	}
	return strings.ToValidUTF8(stdout.String(), "\uFFFD"), nil
}

// RunRedirected works like Run but streams standard output into w instead of
// buffering it.
func (p *Program) RunRedirected(ctx context.Context, loc Location, args []string, group string, w io.Writer) error {
	return p.run(ctx, loc, args, group, w)
}

func (p *Program) run(ctx context.Context, loc Location, args []string, group string, stdout io.Writer) error {
	if p.bin.Path == "" {
		return ErrNoBinary
	}
	if group != "" {
		p.groups.TerminateGroup(group)
	}

	args = p.Args(args, loc)
	var stderr bytes.Buffer
	cmd := newCommand(ctx, p.bin.Path, args...)
	cmd.Env = append(os.Environ(), p.Env(loc)...)
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	cmd.Cancel = func() error {
		return p.groups.Terminate(cmd.Process.Pid)
	}
	cmd.WaitDelay = waitDelay
	if err := cmd.Start(); err != nil {
		return errors.WithStack(err)
	}

	pid := cmd.Process.Pid
	if group != "" {
		p.groups.Register(group, pid)
	}
	err := cmd.Wait()
	terminated := p.groups.Deregister(group, pid)
	if err != nil {
		return p.commandFailed(args, cmd.ProcessState, stderr.Bytes(), err, terminated)
	}
	return nil
}

func (p *Program) commandFailed(args []string, state *os.ProcessState, stderr []byte, err error, terminated bool) error {
	log := p.log.WithField("args", args)
	if terminated || p.groups.Terminator().WasTerminated(state) {
		log.Info("restic command got aborted")
		return ErrCancelled
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return errors.Wrap(err, "restic: wait for command")
	}
	text := strings.ToValidUTF8(string(stderr), "\uFFFD")
	log.Warnf("restic command failed with status %v:\n%s", state, text)
	return &CommandError{Args: args, ExitCode: state.ExitCode(), Stderr: text}
}

// Args returns the full argument vector for a command against loc.
func (p *Program) Args(args []string, loc Location) []string {
	out := append([]string(nil), args...)
	if wrapsRclone(loc.Prefix) && p.rclonePath != "" {
		out = append(out, "--option", "rclone.program="+p.rclonePath)
	}
	if loc.InsecureTLS {
		out = append(out, "--insecure-tls")
	}
	return out
}

// Env returns the environment entries ("NAME=value") restic needs to open
// loc. The file and command based variants are blanked so values inherited
// from the parent environment cannot take precedence.
func (p *Program) Env(loc Location) []string {
	var env []string
	if loc.Path != "" {
		env = append(env, EnvRepository+"="+loc.Repository(), EnvRepositoryFile+"=")
	}
	if loc.Password != "" {
		env = append(env, EnvPassword+"="+loc.Password, EnvPasswordFile+"=", EnvPasswordCommand+"=")
	}
	for _, c := range loc.Credentials {
		env = append(env, c.Name+"="+c.Value)
	}
	return env
}
