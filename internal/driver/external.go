package driver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// timeFormat is handed to time(1) so the report on stderr carries the
// three fixed delimiters the parser looks for.
const timeFormat = "Real time: %E, User time: %U, System time: %S"

const (
	realPrefix   = "Real time: "
	userPrefix   = "User time: "
	systemPrefix = "System time: "
)

// ExternalTimer measures by wrapping the target with the external time
// utility and parsing its textual report from standard error.
type ExternalTimer struct{}

func (t *ExternalTimer) Measure(ctx context.Context, argv, env []string) (Sample, error) {
	args := append([]string{"-f", timeFormat}, argv...)
	cmd := exec.CommandContext(ctx, "time", args...)
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Sample{}, &ChildError{Argv: argv, Output: stderr.String(), Err: err}
	}
	return ParseTimeReport(stderr.String())
}

// ParseTimeReport extracts the three time fields from a time(1) report.
// Each value is either plain seconds or minutes:seconds ("1:05.30").
func ParseTimeReport(report string) (Sample, error) {
	real, err := extractField(report, realPrefix)
	if err != nil {
		return Sample{}, err
	}
	user, err := extractField(report, userPrefix)
	if err != nil {
		return Sample{}, err
	}
	system, err := extractField(report, systemPrefix)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Real: real, User: user, System: system}, nil
}

func extractField(report, prefix string) (float64, error) {
	_, rest, ok := strings.Cut(report, prefix)
	if !ok {
		return 0, fmt.Errorf("time report is missing %q: %q", prefix, report)
	}
	value, _, _ := strings.Cut(rest, ",")
	return parseClock(strings.TrimSpace(value))
}

// parseClock parses "65.30" or "1:05.30" into seconds.
func parseClock(s string) (float64, error) {
	mins, secs, ok := strings.Cut(s, ":")
	if !ok {
		return strconv.ParseFloat(s, 64)
	}
	m, err := strconv.Atoi(mins)
	if err != nil {
		return 0, fmt.Errorf("bad minutes in %q: %w", s, err)
	}
	sec, err := strconv.ParseFloat(secs, 64)
	if err != nil {
		return 0, fmt.Errorf("bad seconds in %q: %w", s, err)
	}
	return float64(m)*60 + sec, nil
}
