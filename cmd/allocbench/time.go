package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"allocbench/internal/config"
	"allocbench/internal/driver"
	"allocbench/internal/metrics"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Factories are variables so tests can substitute fakes.
var (
	newTimeSource = driver.NewTimeSource
	newStoreFunc  = func(path string) (driver.Store, error) { return driver.NewFileStore(path) }
)

func newTimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "time",
		Short: "Measure wall/user/system time under an allocator configuration",
		Long: `Runs the target sequentially for the configured number of iterations,
optionally with an allocator shared object injected via LD_PRELOAD, and
prints summed and aggregated timings. The baseline allocator ("gnu")
runs with no preload.`,
		RunE: runTime,
	}

	cmd.Flags().IntP("iters", "i", 0, "number of iterations (default 25)")
	cmd.Flags().String("ldpreload", "", "directory containing allocator shared objects")
	cmd.Flags().String("allocator-replacement", driver.BaselineAllocator,
		"allocator library filename (e.g. libmimalloc.so), or gnu for the baseline")
	cmd.Flags().String("timer", "", "timing source: external (time utility) or direct (rusage)")
	cmd.Flags().Duration("timeout", 0, "per-iteration timeout, 0 means none")
	cmd.Flags().Bool("csv", false, "also emit the aggregated result as a CSV row")
	cmd.Flags().Bool("save", false, "append raw samples to the run history file")
	cmd.Flags().String("history", "", "run history file (default .allocbench/history.json)")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address during the run")

	return cmd
}

var timeCmd = newTimeCmd()

func init() {
	rootCmd.AddCommand(timeCmd)
}

func buildTimeConfig(cmd *cobra.Command) (driver.Config, error) {
	cfg := targetConfig(cmd)

	cfg.Iters, _ = cmd.Flags().GetInt("iters")
	if cfg.Iters == 0 {
		cfg.Iters = viper.GetInt("iters")
	}
	if cfg.Iters <= 0 {
		return cfg, fmt.Errorf("%w: iters must be positive, got %d", config.ErrInvalid, cfg.Iters)
	}

	cfg.PreloadDir, _ = cmd.Flags().GetString("ldpreload")
	cfg.Allocator, _ = cmd.Flags().GetString("allocator-replacement")
	if !cfg.IsBaseline() && cfg.PreloadDir == "" {
		return cfg, fmt.Errorf("%w: a non-baseline allocator requires --ldpreload", config.ErrInvalid)
	}

	timer, _ := cmd.Flags().GetString("timer")
	if timer == "" {
		timer = viper.GetString("timer")
	}
	cfg.Timer = driver.TimerKind(timer)

	cfg.Timeout, _ = cmd.Flags().GetDuration("timeout")
	if cfg.Timeout == 0 {
		cfg.Timeout = viper.GetDuration("timeout")
	}

	cfg.EmitCSV, _ = cmd.Flags().GetBool("csv")
	cfg.SaveHistory, _ = cmd.Flags().GetBool("save")
	cfg.HistoryPath, _ = cmd.Flags().GetString("history")
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = viper.GetString("history_file")
	}
	cfg.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = viper.GetString("metrics_addr")
	}

	return cfg, nil
}

func runTime(cmd *cobra.Command, args []string) error {
	cfg, err := buildTimeConfig(cmd)
	if err != nil {
		return err
	}

	src, err := newTimeSource(cfg.Timer)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.NewMetrics()
		stop := m.Serve(cfg.MetricsAddr)
		defer stop()
	}

	agg, err := driver.Run(cmd.Context(), cfg, src, m)
	if err != nil {
		return err
	}

	printAggregate(cmd, agg)

	if cfg.EmitCSV {
		fmt.Fprintln(cmd.OutOrStdout(), driver.CSVHeader)
		fmt.Fprintln(cmd.OutOrStdout(), driver.CSVRow(cfg.TargetLabel(), cfg.AllocatorName(), agg))
	}

	if cfg.SaveHistory {
		store, err := newStoreFunc(cfg.HistoryPath)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		record := driver.RunRecord{
			Timestamp: time.Now(),
			Command:   cfg.TargetLabel(),
			Allocator: cfg.AllocatorName(),
			Timer:     cfg.Timer,
			Samples:   agg.Samples,
		}
		if err := store.Save(record); err != nil {
			return fmt.Errorf("failed to save history: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nSamples saved to %s\n", cfg.HistoryPath)
	}

	return nil
}

func printAggregate(cmd *cobra.Command, agg *driver.Aggregate) {
	real := func(s driver.Sample) float64 { return s.Real }
	user := func(s driver.Sample) float64 { return s.User }
	system := func(s driver.Sample) float64 { return s.System }

	sumReal, sumUser, sumSystem := agg.Sum()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "DIMENSION\tSUM\tMEAN\tMIN\tMAX")
	for _, row := range []struct {
		name string
		sum  float64
		dim  func(driver.Sample) float64
	}{
		{"real", sumReal, real},
		{"user", sumUser, user},
		{"system", sumSystem, system},
	} {
		mean, min, max := agg.Stats(row.dim)
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n", row.name, row.sum, mean, min, max)
	}
	w.Flush()
}
