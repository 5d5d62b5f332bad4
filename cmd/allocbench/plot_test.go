package main

import (
	"os"
	"path/filepath"
	"testing"

	"allocbench/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsHeader = "command,allocator,total_mean,total_min,total_max,user_mean,user_min,user_max,system_mean,system_min,system_max\n"

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte(resultsHeader+body), 0644))
	return path
}

func TestPlotCommandRendersCharts(t *testing.T) {
	loadDefaults(t)
	csv := writeCSV(t,
		"a,gnu,10,9,11,8,7,9,1,1,1\n"+
			"a,mimalloc,5,4,6,4,3,5,1,1,1\n"+
			"b,gnu,2,1.8,2.2,1,0.9,1.1,0.8,0.7,0.9\n"+
			"b,mimalloc,2.4,2.2,2.6,1.2,1.1,1.3,1,0.9,1.1\n")
	outDir := filepath.Join(t.TempDir(), "charts")

	root, buf := newTestRoot(newPlotCmd())
	root.SetArgs([]string{"plot", csv, "-o", outDir, "--top-n", "2"})
	require.NoError(t, root.Execute())

	for _, name := range []string{
		report.SummaryFile,
		report.HeatmapFile,
		report.HeatmapLogFile,
		report.TopCommandsFile,
		"a.png",
		"b.png",
	} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
	assert.Contains(t, buf.String(), "Saved:")
	assert.Contains(t, buf.String(), "charts saved to")
}

func TestPlotCommandMissingBaselineSkipsHeatmaps(t *testing.T) {
	loadDefaults(t)
	csv := writeCSV(t,
		"a,mimalloc,5,4,6,4,3,5,1,1,1\n"+
			"a,jemalloc,6,5,7,4,3,5,1,1,1\n")
	outDir := filepath.Join(t.TempDir(), "charts")

	root, _ := newTestRoot(newPlotCmd())
	root.SetArgs([]string{"plot", csv, "-o", outDir})
	require.NoError(t, root.Execute())

	assert.FileExists(t, filepath.Join(outDir, report.SummaryFile))
	assert.NoFileExists(t, filepath.Join(outDir, report.HeatmapFile))
	assert.NoFileExists(t, filepath.Join(outDir, report.HeatmapLogFile))
}

func TestPlotCommandSkipIndividual(t *testing.T) {
	loadDefaults(t)
	csv := writeCSV(t, "a,gnu,10,9,11,8,7,9,1,1,1\n")
	outDir := filepath.Join(t.TempDir(), "charts")

	root, _ := newTestRoot(newPlotCmd())
	root.SetArgs([]string{"plot", csv, "-o", outDir, "--skip-individual"})
	require.NoError(t, root.Execute())

	assert.FileExists(t, filepath.Join(outDir, report.SummaryFile))
	assert.NoFileExists(t, filepath.Join(outDir, "a.png"))
}

func TestPlotCommandNoValidData(t *testing.T) {
	loadDefaults(t)
	csv := writeCSV(t, "a,gnu,-1,-1,-1,-1,-1,-1,-1,-1,-1\n")
	outDir := filepath.Join(t.TempDir(), "charts")

	root, buf := newTestRoot(newPlotCmd())
	root.SetArgs([]string{"plot", csv, "-o", outDir})
	require.NoError(t, root.Execute())

	assert.Contains(t, buf.String(), "No valid data to plot.")
	assert.NoFileExists(t, filepath.Join(outDir, report.SummaryFile))
}

func TestPlotCommandMissingFile(t *testing.T) {
	loadDefaults(t)
	root, _ := newTestRoot(newPlotCmd())
	root.SetArgs([]string{"plot", filepath.Join(t.TempDir(), "nope.csv")})
	assert.Error(t, root.Execute())
}
