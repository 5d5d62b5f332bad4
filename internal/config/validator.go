package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalid marks configuration values that fail validation. These are
// usage errors: the process terminates before any measurement begins.
var ErrInvalid = errors.New("invalid configuration")

// ValidateConfig validates configuration values and returns an error if
// any are invalid. Call after viper has loaded the configuration.
func ValidateConfig() error {
	var problems []string

	if iters := viper.GetInt("iters"); iters <= 0 {
		problems = append(problems, fmt.Sprintf("iters must be positive, got: %d", iters))
	}

	if timer := viper.GetString("timer"); timer != "external" && timer != "direct" {
		problems = append(problems, fmt.Sprintf("timer must be \"external\" or \"direct\", got: %q", timer))
	}

	if timeout := viper.GetDuration("timeout"); timeout < 0 {
		problems = append(problems, fmt.Sprintf("timeout must not be negative, got: %v", timeout))
	}

	if topN := viper.GetInt("top_n"); topN <= 0 {
		problems = append(problems, fmt.Sprintf("top_n must be positive, got: %d", topN))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalid, strings.Join(problems, "\n  - "))
	}
	return nil
}
