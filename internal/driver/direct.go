package driver

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// DirectTimer measures without an external wrapper: wall-clock delta
// around the child plus the child's user/system CPU time from its
// resource-usage counters.
type DirectTimer struct{}

func (t *DirectTimer) Measure(ctx context.Context, argv, env []string) (Sample, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = env

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	real := time.Since(start).Seconds()
	if err != nil {
		return Sample{}, &ChildError{Argv: argv, Output: out.String(), Err: err}
	}

	state := cmd.ProcessState
	return Sample{
		Real:   real,
		User:   state.UserTime().Seconds(),
		System: state.SystemTime().Seconds(),
	}, nil
}
