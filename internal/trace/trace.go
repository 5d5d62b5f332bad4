// Package trace counts system-call invocations of a target command by
// running it once under strace and parsing the raw trace log.
package trace

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// LogName returns the trace log filename for a given start time, e.g.
// strace_counter_2025_01_02_15_04_05.
func LogName(t time.Time) string {
	return "strace_counter_" + t.Format("2006_01_02_15_04_05")
}

// Count runs argv exactly once under strace (following forked children)
// and returns a mapping from syscall name to invocation count. A failing
// child is logged, not fatal: parsing still proceeds against whatever
// trace log exists. The log file is removed regardless of outcome.
func Count(ctx context.Context, argv []string) (map[string]int, error) {
	logPath := LogName(time.Now())
	defer os.Remove(logPath)

	args := append([]string{"-f", "-o", logPath}, argv...)
	cmd := exec.CommandContext(ctx, "strace", args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		slog.Warn("traced command failed",
			"command", strings.Join(argv, " "),
			"error", err,
			"output", out.String())
	}

	f, err := os.Open(logPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open trace log: %w", err)
	}
	defer f.Close()

	return ParseLog(f), nil
}

// ParseLog scans raw strace output line by line and counts syscall
// names. Lines that do not carry a syscall token are skipped.
func ParseLog(r io.Reader) map[string]int {
	counts := make(map[string]int)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if name, ok := SyscallName(sc.Text()); ok {
			counts[name]++
		}
	}
	return counts
}

// SyscallName extracts the syscall token from one trace line: the second
// whitespace-separated field, cut at the first parenthesis. Tokens whose
// first character is not alphanumeric (signal and control lines such as
// "--- SIGCHLD ---") are rejected.
func SyscallName(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}
	token, _, _ := strings.Cut(fields[1], "(")
	if token == "" || !isAlnum(token[0]) {
		return "", false
	}
	return token, true
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
