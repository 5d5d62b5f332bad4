package main

import (
	"errors"
	"fmt"
	"os"

	"allocbench/internal/config"
	"allocbench/internal/driver"
	"allocbench/internal/telemetry"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exit = os.Exit
var cfgFile string

// Exit statuses: usage and configuration errors are distinguished from
// runtime failures such as a benchmark child exiting non-zero.
const (
	exitFailure = 1
	exitUsage   = 2
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "allocbench",
	Short: "Benchmark memory allocators across command-line workloads",
	Long: `allocbench compares memory-allocator performance (GNU libc baseline vs
preloaded replacements such as libmimalloc.so) for a target binary or
command. It measures wall/user/system time over repeated runs, counts
system calls via strace, and renders charts from aggregated result CSVs.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	// Runs after initConfig has loaded file and environment values, so
	// a bad iters/timer/top_n from any source is rejected up front.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.ValidateConfig()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			exit(exitFailure)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if isUsageError(err) {
			exit(exitUsage)
		}
		exit(exitFailure)
	}
}

func isUsageError(err error) bool {
	return errors.Is(err, driver.ErrInvalidTarget) ||
		errors.Is(err, driver.ErrPreloadMissing) ||
		errors.Is(err, config.ErrInvalid)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.allocbench.yaml)")
	rootCmd.PersistentFlags().StringP("file", "f", "", "path to the executable to benchmark")
	rootCmd.PersistentFlags().StringP("command", "c", "", "inline command string to benchmark")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.Load(cfgFile)
	telemetry.InitLogger(viper.GetBool("verbose"), viper.GetString("log_file"))
}

// targetConfig builds the driver target from the persistent flags.
func targetConfig(cmd *cobra.Command) driver.Config {
	file, _ := cmd.Flags().GetString("file")
	command, _ := cmd.Flags().GetString("command")
	return driver.Config{File: file, Command: command}
}
