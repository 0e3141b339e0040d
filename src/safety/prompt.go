package safety

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ErrDeclined is returned by ConfirmReplace when an existing file is kept.
var ErrDeclined = errors.New("aborted by user")

// Confirm prompts the user to confirm an action that writes to the local
// filesystem.
// - If opts.DryRun is true, it returns false but no error (no action should be taken).
// - If opts.Yes is true, it returns true without prompting.
// The caller decides what to do with the result.
func Confirm(opts Options, in io.Reader, out io.Writer, question string) (bool, error) {
	if opts.DryRun {
		return false, nil
	}
	if opts.Yes {
		return true, nil
	}
	if out != nil {
		fmt.Fprintf(out, "%s [y/N]: ", strings.TrimSpace(question))
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.Wrap(err, "safety: read answer")
	}
	ans := strings.TrimSpace(strings.ToLower(line))
	return ans == "y" || ans == "yes", nil
}

// ConfirmReplace decides whether the existing file at path may be replaced.
// Replacing needs opts.Force; without it, or when the user declines, the
// returned error wraps ErrDeclined.
func ConfirmReplace(opts Options, in io.Reader, out io.Writer, path string) error {
	if !opts.Force {
		return errors.Wrapf(ErrDeclined, "%s already exists (use --force to replace it)", path)
	}
	ok, err := Confirm(opts, in, out, fmt.Sprintf("Replace existing %s?", path))
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrDeclined, "keeping %s", path)
	}
	return nil
}
