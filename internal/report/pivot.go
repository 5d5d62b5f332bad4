package report

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrBaselineMissing is returned when the requested baseline allocator
// does not appear in the data. Callers at the CLI edge may downgrade it
// to a warning; the library itself is strict.
var ErrBaselineMissing = errors.New("baseline allocator not found in data")

// Matrix is a commands x allocators grid of mean total times. Missing
// (command, allocator) pairs are NaN.
type Matrix struct {
	Commands   []string
	Allocators []string
	Values     [][]float64 // [command][allocator]
}

// Pivot derives the performance matrix from the table: one row per
// command, one column per allocator, cell = mean total time across that
// pair's rows.
func (t *Table) Pivot() *Matrix {
	m := &Matrix{
		Commands:   t.Commands(),
		Allocators: t.Allocators(),
	}
	colIdx := make(map[string]int, len(m.Allocators))
	for i, a := range m.Allocators {
		colIdx[a] = i
	}
	rowIdx := make(map[string]int, len(m.Commands))
	for i, c := range m.Commands {
		rowIdx[c] = i
	}

	cells := make([][][]float64, len(m.Commands))
	for i := range cells {
		cells[i] = make([][]float64, len(m.Allocators))
	}
	for _, r := range t.Rows {
		i, j := rowIdx[r.Command], colIdx[r.Allocator]
		cells[i][j] = append(cells[i][j], r.TotalMean)
	}

	m.Values = make([][]float64, len(m.Commands))
	for i := range m.Values {
		m.Values[i] = make([]float64, len(m.Allocators))
		for j, vals := range cells[i] {
			if len(vals) == 0 {
				m.Values[i][j] = math.NaN()
				continue
			}
			m.Values[i][j] = stat.Mean(vals, nil)
		}
	}
	return m
}

// HasAllocator reports whether the matrix carries a column for name.
func (m *Matrix) HasAllocator(name string) bool {
	for _, a := range m.Allocators {
		if a == name {
			return true
		}
	}
	return false
}

// Normalize divides every row by that row's baseline-column value,
// producing relative-speed ratios: 1.0 = parity, <1.0 = faster than the
// baseline, >1.0 = slower.
func (m *Matrix) Normalize(baseline string) (*Matrix, error) {
	col := -1
	for j, a := range m.Allocators {
		if a == baseline {
			col = j
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: %q", ErrBaselineMissing, baseline)
	}

	out := &Matrix{
		Commands:   m.Commands,
		Allocators: m.Allocators,
		Values:     make([][]float64, len(m.Values)),
	}
	for i, row := range m.Values {
		out.Values[i] = make([]float64, len(row))
		base := row[col]
		for j, v := range row {
			out.Values[i][j] = v / base
		}
	}
	return out, nil
}

// Bounds returns the smallest and largest finite cells.
func (m *Matrix) Bounds() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, row := range m.Values {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return min, max
}
