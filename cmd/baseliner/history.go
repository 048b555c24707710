package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/baseliner/pkg/baseliner/config"
	"github.com/jamesainslie/baseliner/pkg/baseliner/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View check history",
	Long: `View the history of check runs.

Every check is recorded unless --no-history is given or history.enabled
is false. Runs older than history.retention_days are pruned after each
check and by 'baseliner history clean'.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show details of a specific run",
	Long:  `Display detailed information about a run by its ID or a unique ID prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove runs older than the retention period.`,
	RunE:  runHistoryClean,
}

var (
	historyLimit int
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of runs to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the configured history store.
func openHistory() (*history.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, cfg, nil
}

// runHistory lists recent runs.
func runHistory(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(runs) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'baseliner check [dir]' to record one.")
		return nil
	}

	printRuns(cmd.OutOrStdout(), runs)
	fmt.Fprintln(cmd.OutOrStdout(), "Use 'baseliner history show <id>' for details on a specific run.")
	return nil
}

// printRuns writes a table of runs, newest first.
func printRuns(w io.Writer, runs []*history.Run) {
	fmt.Fprintf(w, "\n%-36s  %-6s  %-12s  %-10s  %-10s  %-8s\n", "ID", "STATUS", "WHEN", "CHECKED", "UNEXPECTED", "UNUSED")
	fmt.Fprintln(w, strings.Repeat("-", 92))

	for _, run := range runs {
		status := "pass"
		if !run.Passed() {
			status = "fail"
		}
		fmt.Fprintf(w, "%-36s  %-6s  %-12s  %-10s  %-10d  %-8d\n",
			truncateString(run.ID, 36),
			status,
			truncateString(humanize.Time(run.Timestamp), 12),
			humanize.Comma(run.Summary.Checked),
			run.Summary.Unexpected,
			run.Summary.Unused+run.Summary.Partial,
		)
	}

	fmt.Fprintln(w, strings.Repeat("-", 92))
	fmt.Fprintf(w, "\nShowing %d runs. Use --limit to see more.\n", len(runs))
}

// runHistoryShow displays details of a specific run.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	printRun(cmd.OutOrStdout(), run)
	return nil
}

// printRun writes the details of one run.
func printRun(w io.Writer, run *history.Run) {
	fmt.Fprintln(w, "\nRun Details")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "ID:          %s\n", run.ID)
	fmt.Fprintf(w, "Timestamp:   %s\n", run.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Root:        %s\n", run.Root)
	fmt.Fprintf(w, "Baseline:    %s\n", run.Baseline)
	if run.Suffix != "" {
		fmt.Fprintf(w, "Suffix:      %s\n", run.Suffix)
	}
	if run.Tag != "" {
		fmt.Fprintf(w, "Tag:         %s\n", run.Tag)
	}
	fmt.Fprintf(w, "Elapsed:     %s\n", run.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Checked:     %s files, %d excluded, %d unexpected\n",
		humanize.Comma(run.Summary.Checked), run.Summary.Excluded, run.Summary.Unexpected)
	fmt.Fprintf(w, "Exclusions:  %d total, %d used, %d partial, %d unused\n",
		run.Summary.Entries, run.Summary.Used, run.Summary.Partial, run.Summary.Unused)

	if len(run.Unexpected) > 0 {
		fmt.Fprintln(w, "\nUnexpected:")
		fmt.Fprintln(w, strings.Repeat("-", 60))

		// Limit display to 50 files
		limit := min(len(run.Unexpected), 50)
		for _, p := range run.Unexpected[:limit] {
			fmt.Fprintf(w, "  %s\n", p)
		}
		if len(run.Unexpected) > limit {
			fmt.Fprintf(w, "\n... and %d more files\n", len(run.Unexpected)-limit)
		}
	}

	if len(run.Unused) > 0 {
		fmt.Fprintln(w, "\nUnused:")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, s := range run.Unused {
			suffixes := "*"
			if len(s.Suffixes) > 0 {
				suffixes = strings.Join(s.Suffixes, ",")
			}
			fmt.Fprintf(w, "  %s:%d  %s  [%s]\n", s.File, s.Line, s.Pattern, suffixes)
		}
	}

	if len(run.Written) > 0 {
		fmt.Fprintln(w, "\nWritten:")
		for _, p := range run.Written {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
}

// runHistoryClean removes old history entries.
func runHistoryClean(cmd *cobra.Command, args []string) error {
	store, cfg, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	retentionDays := cfg.History.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)

	removed, err := store.Cleanup(time.Duration(retentionDays) * 24 * time.Hour)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("History cleanup complete: %d runs removed.", removed)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
