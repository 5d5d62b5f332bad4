package driver

import (
	"context"
	"fmt"
	"strings"
)

// Sample is one timing measurement of a single child execution, in
// seconds.
type Sample struct {
	Real   float64 `json:"real"`
	User   float64 `json:"user"`
	System float64 `json:"system"`
}

// TimeSource runs a target once and reports its elapsed times. The two
// implementations are interchangeable strategies selected by Config.
type TimeSource interface {
	Measure(ctx context.Context, argv, env []string) (Sample, error)
}

// NewTimeSource returns the timing strategy for the given kind.
func NewTimeSource(kind TimerKind) (TimeSource, error) {
	switch kind {
	case TimerExternal, "":
		return &ExternalTimer{}, nil
	case TimerDirect:
		return &DirectTimer{}, nil
	default:
		return nil, fmt.Errorf("unknown timer kind %q (want %q or %q)", kind, TimerExternal, TimerDirect)
	}
}

// ChildError reports a benchmark child process that exited non-zero.
// Any partial samples collected before it are discarded by the caller.
type ChildError struct {
	Argv   []string
	Output string
	Err    error
}

func (e *ChildError) Error() string {
	return fmt.Sprintf("benchmark child %q failed: %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *ChildError) Unwrap() error { return e.Err }
