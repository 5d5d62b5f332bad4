package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"allocbench/internal/trace"

	"github.com/spf13/cobra"
)

// countSyscalls allows mocking in tests.
var countSyscalls = trace.Count

func newStraceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strace",
		Short: "Count system calls made by the target",
		Long: `Runs the target exactly once under strace (following forked children)
and prints a histogram of system-call invocation counts.`,
		RunE: runStrace,
	}
}

var straceCmd = newStraceCmd()

func init() {
	rootCmd.AddCommand(straceCmd)
}

func runStrace(cmd *cobra.Command, args []string) error {
	cfg := targetConfig(cmd)
	argv, err := cfg.ResolveTarget()
	if err != nil {
		return err
	}

	counts, err := countSyscalls(cmd.Context(), argv)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	// highest count first, names break ties
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SYSCALL\tCOUNT")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%d\n", name, counts[name])
	}
	return w.Flush()
}
