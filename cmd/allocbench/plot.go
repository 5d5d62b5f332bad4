package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"allocbench/internal/report"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	plotHeaderStyle = lipgloss.NewStyle().Bold(true)
	plotDoneStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <csv_file>",
		Short: "Render comparison charts from an aggregated results CSV",
		Long: `Loads a CSV of benchmark results keyed by (command, allocator), drops
every command that carries a failure (-1) or timeout (-60) sentinel, and
writes the chart artifacts: a per-allocator summary dashboard, heatmaps
normalized to a baseline allocator, a top-N longest-running commands
chart and one detail chart per command.`,
		Args: cobra.ExactArgs(1),
		RunE: runPlot,
	}

	cmd.Flags().StringP("output-dir", "o", "", "output directory for charts (default plots)")
	cmd.Flags().Bool("skip-individual", false, "skip individual command charts")
	cmd.Flags().Int("top-n", 0, "number of top commands in the comparison chart (default 10)")
	cmd.Flags().StringP("baseline", "b", "", "baseline allocator for heatmap normalization (default gnu)")

	return cmd
}

var plotCmd = newPlotCmd()

func init() {
	rootCmd.AddCommand(plotCmd)
}

func runPlot(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	outDir, _ := cmd.Flags().GetString("output-dir")
	if outDir == "" {
		outDir = viper.GetString("output_dir")
	}
	topN, _ := cmd.Flags().GetInt("top-n")
	if topN <= 0 {
		topN = viper.GetInt("top_n")
	}
	baseline, _ := cmd.Flags().GetString("baseline")
	if !cmd.Flags().Changed("baseline") {
		baseline = viper.GetString("baseline")
	}
	skipIndividual, _ := cmd.Flags().GetBool("skip-individual")

	table, err := report.Load(args[0])
	if err != nil {
		return err
	}
	filtered := table.FilterValid()
	slog.Info("loaded results",
		"rows", len(table.Rows),
		"valid_rows", len(filtered.Rows),
		"filtered_out", len(table.Rows)-len(filtered.Rows),
		"commands", len(filtered.Commands()),
		"allocators", len(filtered.Allocators()))

	if len(filtered.Rows) == 0 {
		fmt.Fprintln(out, "No valid data to plot.")
		return nil
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}

	// Lenient at the CLI edge: an absent baseline downgrades to "skip the
	// heatmaps" with a warning instead of aborting the whole run. The
	// report package itself stays strict.
	allocators := filtered.Allocators()
	if baseline != "" && !contains(allocators, baseline) {
		slog.Warn("baseline allocator not found in data, skipping heatmaps",
			"baseline", baseline,
			"available", strings.Join(allocators, ", "))
		baseline = ""
	}

	fmt.Fprintln(out, plotHeaderStyle.Render("Creating overview charts..."))

	var artifacts []string
	record := func(path string, err error) error {
		if err != nil {
			return err
		}
		if path != "" {
			fmt.Fprintf(out, "Saved: %s\n", path)
			artifacts = append(artifacts, filepath.Base(path))
		}
		return nil
	}

	if err := record(report.SummaryChart(filtered, outDir)); err != nil {
		return err
	}
	if baseline != "" {
		pivot := filtered.Pivot()
		if err := record(report.HeatmapChart(pivot, baseline, outDir)); err != nil {
			return err
		}
		if err := record(report.HeatmapLogChart(pivot, baseline, outDir)); err != nil {
			return err
		}
	}
	if err := record(report.TopCommandsChart(filtered, topN, outDir)); err != nil {
		return err
	}

	if !skipIndividual {
		commands := filtered.Commands()
		fmt.Fprintln(out, plotHeaderStyle.Render("Creating individual command charts..."))
		for i, command := range commands {
			fmt.Fprintf(out, "  [%d/%d] %s\n", i+1, len(commands), command)
			if err := record(report.CommandChart(filtered, command, outDir)); err != nil {
				return err
			}
		}
	}

	absDir, err := filepath.Abs(outDir)
	if err != nil {
		absDir = outDir
	}
	fmt.Fprintln(out, plotDoneStyle.Render(fmt.Sprintf("✓ %d charts saved to %s", len(artifacts), absDir)))
	fmt.Fprintf(out, "Artifacts: %s\n", strings.Join(artifacts, ", "))
	return nil
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
