package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"allocbench/internal/metrics"
)

// Aggregate accumulates the timing samples of one allocator
// configuration for the lifetime of a driver invocation.
type Aggregate struct {
	Samples []Sample
}

// Sum returns the three time dimensions summed across all iterations.
func (a *Aggregate) Sum() (real, user, system float64) {
	for _, s := range a.Samples {
		real += s.Real
		user += s.User
		system += s.System
	}
	return real, user, system
}

// Stats returns mean, min and max for one extracted dimension.
func (a *Aggregate) Stats(dim func(Sample) float64) (mean, min, max float64) {
	if len(a.Samples) == 0 {
		return 0, 0, 0
	}
	min = dim(a.Samples[0])
	max = min
	var sum float64
	for _, s := range a.Samples {
		v := dim(s)
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return sum / float64(len(a.Samples)), min, max
}

// Run executes the configured workload Iters times sequentially under
// one allocator configuration. Any child failure is fatal: the error is
// returned and partial samples are discarded.
func Run(ctx context.Context, cfg Config, src TimeSource, m *metrics.Metrics) (*Aggregate, error) {
	argv, err := cfg.ResolveTarget()
	if err != nil {
		return nil, err
	}
	soPath, err := cfg.ResolvePreload()
	if err != nil {
		return nil, err
	}
	env := BuildEnv(soPath)

	allocator := cfg.AllocatorName()
	slog.Info("starting timing run",
		"command", strings.Join(argv, " "),
		"allocator", allocator,
		"iters", cfg.Iters,
		"timer", cfg.Timer)

	agg := &Aggregate{Samples: make([]Sample, 0, cfg.Iters)}
	for i := 0; i < cfg.Iters; i++ {
		iterCtx := ctx
		cancel := func() {}
		if cfg.Timeout > 0 {
			iterCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		}
		start := time.Now()
		sample, err := src.Measure(iterCtx, argv, env)
		cancel()
		if err != nil {
			if m != nil {
				m.ChildFailures.WithLabelValues(allocator).Inc()
			}
			return nil, fmt.Errorf("iteration %d/%d: %w", i+1, cfg.Iters, err)
		}
		if m != nil {
			m.IterationsTotal.WithLabelValues(allocator).Inc()
			m.ChildDuration.WithLabelValues(allocator).Observe(time.Since(start).Seconds())
		}
		slog.Debug("iteration complete",
			"iter", i+1,
			"real", sample.Real,
			"user", sample.User,
			"system", sample.System)
		agg.Samples = append(agg.Samples, sample)
	}

	real, user, system := agg.Sum()
	slog.Info("timing run complete",
		"allocator", allocator,
		"total_real", real,
		"total_user", user,
		"total_system", system)
	return agg, nil
}

// CSVRow renders one aggregated result in the plotter's input schema:
// command, allocator, then mean/min/max for total, user and system time.
func CSVRow(command, allocator string, agg *Aggregate) string {
	fields := []string{command, allocator}
	for _, dim := range []func(Sample) float64{
		func(s Sample) float64 { return s.Real },
		func(s Sample) float64 { return s.User },
		func(s Sample) float64 { return s.System },
	} {
		mean, min, max := agg.Stats(dim)
		for _, v := range []float64{mean, min, max} {
			fields = append(fields, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return strings.Join(fields, ",")
}

// CSVHeader matches CSVRow's column order.
const CSVHeader = "command,allocator,total_mean,total_min,total_max,user_mean,user_min,user_max,system_mean,system_min,system_max"
