package driver

import (
	"errors"
	"fmt"
	"os"

	"github.com/kballard/go-shellquote"
	"golang.org/x/sys/unix"
)

// ErrInvalidTarget marks usage errors in the target specification. These
// are reported before any child process is spawned.
var ErrInvalidTarget = errors.New("invalid benchmark target")

// ResolveTarget validates the configured target and returns the argv to
// execute. File targets must reference an executable regular file; inline
// commands are split with shell quoting rules.
func (c Config) ResolveTarget() ([]string, error) {
	if c.File == "" && c.Command == "" {
		return nil, fmt.Errorf("%w: you must provide either --file or --command", ErrInvalidTarget)
	}
	if c.File != "" && c.Command != "" {
		return nil, fmt.Errorf("%w: --file and --command are mutually exclusive", ErrInvalidTarget)
	}

	if c.File != "" {
		info, err := os.Stat(c.File)
		if err != nil || !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%w: %s is not an executable file", ErrInvalidTarget, c.File)
		}
		if err := unix.Access(c.File, unix.X_OK); err != nil {
			return nil, fmt.Errorf("%w: %s is not an executable file", ErrInvalidTarget, c.File)
		}
		return []string{c.File}, nil
	}

	argv, err := shellquote.Split(c.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse command: %v", ErrInvalidTarget, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrInvalidTarget)
	}
	return argv, nil
}
