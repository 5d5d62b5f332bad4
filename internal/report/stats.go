package report

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AllocatorStat pairs an allocator with one computed metric.
type AllocatorStat struct {
	Allocator string
	Value     float64
}

// TotalsByAllocator collects the total_mean values per allocator, in
// encounter order.
func (t *Table) TotalsByAllocator() ([]string, map[string][]float64) {
	allocators := t.Allocators()
	totals := make(map[string][]float64, len(allocators))
	for _, r := range t.Rows {
		totals[r.Allocator] = append(totals[r.Allocator], r.TotalMean)
	}
	return allocators, totals
}

// AllocatorMeans returns the average total time per allocator across all
// commands, ranked ascending.
func (t *Table) AllocatorMeans() []AllocatorStat {
	allocators, totals := t.TotalsByAllocator()
	out := make([]AllocatorStat, 0, len(allocators))
	for _, a := range allocators {
		out = append(out, AllocatorStat{Allocator: a, Value: stat.Mean(totals[a], nil)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// WinCounts returns, per allocator, the number of commands for which it
// was strictly fastest. Ties go to the first minimum encountered.
// Allocators that never win are omitted; results are ranked by count
// descending.
func (t *Table) WinCounts() []AllocatorStat {
	counts := make(map[string]int)
	var order []string
	for _, cmd := range t.Commands() {
		rows := t.ByCommand(cmd)
		winner := rows[0].Allocator
		best := rows[0].TotalMean
		for _, r := range rows[1:] {
			if r.TotalMean < best {
				best = r.TotalMean
				winner = r.Allocator
			}
		}
		if counts[winner] == 0 {
			order = append(order, winner)
		}
		counts[winner]++
	}

	out := make([]AllocatorStat, 0, len(order))
	for _, a := range order {
		out = append(out, AllocatorStat{Allocator: a, Value: float64(counts[a])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// CoefficientOfVariation returns std/mean of total time per allocator,
// ranked ascending. Lower means more consistent.
func (t *Table) CoefficientOfVariation() []AllocatorStat {
	allocators, totals := t.TotalsByAllocator()
	out := make([]AllocatorStat, 0, len(allocators))
	for _, a := range allocators {
		vals := totals[a]
		mean := stat.Mean(vals, nil)
		cv := 0.0
		if mean != 0 {
			cv = stat.StdDev(vals, nil) / mean
		}
		out = append(out, AllocatorStat{Allocator: a, Value: cv})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// TopCommands returns the n commands with the highest average total time
// across allocators. Ties keep original encounter order. A non-positive
// n selects nothing.
func (t *Table) TopCommands(n int) []string {
	if n <= 0 {
		return nil
	}
	commands := t.Commands()
	type cmdMean struct {
		command string
		mean    float64
	}
	means := make([]cmdMean, 0, len(commands))
	for _, cmd := range commands {
		var vals []float64
		for _, r := range t.ByCommand(cmd) {
			vals = append(vals, r.TotalMean)
		}
		means = append(means, cmdMean{command: cmd, mean: stat.Mean(vals, nil)})
	}
	sort.SliceStable(means, func(i, j int) bool { return means[i].mean > means[j].mean })

	if n > len(means) {
		n = len(means)
	}
	out := make([]string, 0, n)
	for _, m := range means[:n] {
		out = append(out, m.command)
	}
	return out
}
