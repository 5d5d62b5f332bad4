// Package report loads aggregated benchmark results from CSV and
// renders the comparison chart artifacts.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
)

// Sentinel values reserved in the CSV for rows that are not real
// measurements.
const (
	SentinelFailure = -1
	SentinelTimeout = -60
)

// Row is one aggregated benchmark result for a (command, allocator)
// pair.
type Row struct {
	Command   string
	Allocator string

	TotalMean, TotalMin, TotalMax    float64
	UserMean, UserMin, UserMax       float64
	SystemMean, SystemMin, SystemMax float64
}

func (r Row) numeric() []float64 {
	return []float64{
		r.TotalMean, r.TotalMin, r.TotalMax,
		r.UserMean, r.UserMin, r.UserMax,
		r.SystemMean, r.SystemMin, r.SystemMax,
	}
}

// Valid reports whether the row carries no sentinel value.
func (r Row) Valid() bool {
	for _, v := range r.numeric() {
		if v == SentinelFailure || v == SentinelTimeout {
			return false
		}
	}
	return true
}

// Table is a row-oriented view of the results CSV. Row order is
// preserved from the file; tie-breaking rules depend on it.
type Table struct {
	Rows []Row
}

var columns = []string{
	"command", "allocator",
	"total_mean", "total_min", "total_max",
	"user_mean", "user_min", "user_max",
	"system_mean", "system_min", "system_max",
}

// Load parses the results CSV. The header row is required and column
// order is resolved by name. Rows with missing columns or unparseable
// numbers are skipped with a warning.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open results file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses results CSV from a reader.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read CSV header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range columns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("results CSV is missing column %q", name)
		}
	}

	t := &Table{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}

		row, err := parseRow(record, idx)
		if err != nil {
			slog.Warn("skipping malformed results row", "line", line, "error", err)
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func parseRow(record []string, idx map[string]int) (Row, error) {
	get := func(name string) (string, error) {
		i := idx[name]
		if i >= len(record) {
			return "", fmt.Errorf("missing column %q", name)
		}
		return record[i], nil
	}

	var row Row
	var err error
	if row.Command, err = get("command"); err != nil {
		return Row{}, err
	}
	if row.Allocator, err = get("allocator"); err != nil {
		return Row{}, err
	}

	for _, field := range []struct {
		name string
		dst  *float64
	}{
		{"total_mean", &row.TotalMean}, {"total_min", &row.TotalMin}, {"total_max", &row.TotalMax},
		{"user_mean", &row.UserMean}, {"user_min", &row.UserMin}, {"user_max", &row.UserMax},
		{"system_mean", &row.SystemMean}, {"system_min", &row.SystemMin}, {"system_max", &row.SystemMax},
	} {
		s, err := get(field.name)
		if err != nil {
			return Row{}, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Row{}, fmt.Errorf("column %q: %w", field.name, err)
		}
		*field.dst = v
	}
	return row, nil
}

// FilterValid drops every command group that contains a sentinel value
// anywhere in its rows. A command is only compared across allocators if
// every allocator produced a valid result for it.
func (t *Table) FilterValid() *Table {
	bad := make(map[string]bool)
	for _, r := range t.Rows {
		if !r.Valid() {
			bad[r.Command] = true
		}
	}

	out := &Table{}
	for _, r := range t.Rows {
		if !bad[r.Command] {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Commands returns the distinct commands in encounter order.
func (t *Table) Commands() []string {
	return distinct(t.Rows, func(r Row) string { return r.Command })
}

// Allocators returns the distinct allocators in encounter order.
func (t *Table) Allocators() []string {
	return distinct(t.Rows, func(r Row) string { return r.Allocator })
}

// ByCommand returns the rows for one command in encounter order.
func (t *Table) ByCommand(command string) []Row {
	var rows []Row
	for _, r := range t.Rows {
		if r.Command == command {
			rows = append(rows, r)
		}
	}
	return rows
}

func distinct(rows []Row, key func(Row) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		k := key(r)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
