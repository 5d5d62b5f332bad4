package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PreloadVar is the environment variable the dynamic loader reads to
// inject the allocator shared object into the child process.
const PreloadVar = "LD_PRELOAD"

// ErrPreloadMissing marks a non-baseline allocator whose shared object
// cannot be found. The driver terminates before spawning anything.
var ErrPreloadMissing = errors.New("allocator shared object not found")

// ResolvePreload returns the shared-object path for the configured
// allocator. Baseline runs return an empty path: no existence check is
// performed and no preload is applied.
func (c Config) ResolvePreload() (string, error) {
	if c.IsBaseline() {
		return "", nil
	}
	soPath := filepath.Join(c.PreloadDir, c.Allocator)
	info, err := os.Stat(soPath)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrPreloadMissing, soPath)
	}
	return soPath, nil
}

// BuildEnv returns a copy of the current environment, with the preload
// variable appended when a shared-object path is set.
func BuildEnv(soPath string) []string {
	env := os.Environ()
	if soPath != "" {
		env = append(env, PreloadVar+"="+soPath)
	}
	return env
}
