package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/baseliner/pkg/baseliner/config"
	"github.com/jamesainslie/baseliner/pkg/baseliner/exclusions"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the loaded exclusions",
	Long: `Print the exclusions of the baseline and its imports, grouped by the
file that declared them.

With --suffix, only the patterns that apply to that suffix are printed.
Files that do not declare the suffix are skipped; it is an error when no
file declares it, or when suffixes are disabled.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

// runList prints the loaded exclusions.
func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return listExclusions(cmd.OutOrStdout(), cfg, viper.GetString("suffix"))
}

// listExclusions writes the exclusions of cfg's baseline to w.
func listExclusions(w io.Writer, cfg *config.Config, suffix string) error {
	matcher, err := buildMatcher(cfg)
	if err != nil {
		return err
	}
	eng, err := openEngine(cfg, matcher)
	if err != nil {
		return err
	}

	if suffix != "" {
		return listForSuffix(w, eng, suffix)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, file := range eng.Files() {
		fmt.Fprintf(tw, "%s\n", file)
		for _, entry := range eng.Entries(file) {
			fmt.Fprintf(tw, "  %d\t%s\n", entry.Line(), entry)
		}
	}
	return tw.Flush()
}

// listForSuffix prints the patterns of every file that declares suffix.
func listForSuffix(w io.Writer, eng *exclusions.Engine, suffix string) error {
	var usageErr error
	found := false

	for _, file := range eng.Files() {
		patterns, err := eng.PatternsFor(file, suffix)
		if errors.Is(err, exclusions.ErrUsage) {
			usageErr = err
			continue
		}
		if err != nil {
			return err
		}
		found = true

		fmt.Fprintf(w, "%s\n", file)
		for _, p := range patterns {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}

	if !found && usageErr != nil {
		return usageErr
	}
	if !found {
		return fmt.Errorf("%w: no baseline declares suffix %q", exclusions.ErrUsage, suffix)
	}
	return nil
}
