package driver

import (
	"strings"
	"time"
)

// BaselineAllocator is the allocator the target runs with when no shared
// object is preloaded. It needs no .so on disk and no LD_PRELOAD override.
const BaselineAllocator = "gnu"

// TimerKind selects the timing-source strategy for timing mode.
type TimerKind string

const (
	// TimerExternal wraps the target with the time(1) utility and parses
	// its report from stderr.
	TimerExternal TimerKind = "external"
	// TimerDirect measures wall clock around the child and reads user and
	// system CPU time from the child's resource usage.
	TimerDirect TimerKind = "direct"
)

// Config carries one fully-resolved benchmark driver invocation. It is
// built once from flags and configuration and passed by value to the
// measurement functions.
type Config struct {
	// Exactly one of File or Command must be set. File points at an
	// executable on disk; Command is an inline command string.
	File    string
	Command string

	Iters      int
	PreloadDir string
	Allocator  string
	Timer      TimerKind

	// Timeout bounds a single iteration. Zero means no limit: a hung
	// child blocks the run, matching the operator-intervenes contract.
	Timeout time.Duration

	EmitCSV     bool
	SaveHistory bool
	HistoryPath string
	MetricsAddr string
}

// IsBaseline reports whether this run uses the default allocator.
func (c Config) IsBaseline() bool {
	return c.Allocator == "" || c.Allocator == BaselineAllocator
}

// AllocatorName returns the short allocator name used in result rows:
// "gnu" for the baseline, otherwise the library filename without its
// "lib" prefix and extension ("libmimalloc.so" becomes "mimalloc").
func (c Config) AllocatorName() string {
	if c.IsBaseline() {
		return BaselineAllocator
	}
	name := c.Allocator
	name = strings.TrimPrefix(name, "lib")
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

// TargetLabel returns the command string used to key result rows.
func (c Config) TargetLabel() string {
	if c.File != "" {
		return c.File
	}
	return c.Command
}
