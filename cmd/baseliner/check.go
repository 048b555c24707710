package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/baseliner/pkg/baseliner/config"
	"github.com/jamesainslie/baseliner/pkg/baseliner/exclusions"
	"github.com/jamesainslie/baseliner/pkg/baseliner/history"
	"github.com/jamesainslie/baseliner/pkg/baseliner/logging"
	"github.com/jamesainslie/baseliner/pkg/baseliner/output"
	"github.com/jamesainslie/baseliner/pkg/baseliner/scanner"
	"github.com/jamesainslie/baseliner/pkg/baseliner/watcher"
)

var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Check a directory tree against the baseline",
	Long: `Walk a directory tree and ask the baseline about every file.

Files no exclusion covers are reported as unexpected. Exclusions that
matched nothing, or only some of their suffixes, are reported as unused.

With --update, Updated<name> files are written next to each baseline (or
into --out-dir) keeping only the exclusions that were used. With
--report-unused, Unused<name> files list what was not.

Exit status is 1 on errors and 2 when --fail-on-unexpected or
--fail-on-unused trigger.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	flags := checkCmd.Flags()

	// Filter flags
	flags.String("include", "", "only check paths matching these globs (comma-separated)")
	flags.StringSliceP("exclude", "e", nil, "skip paths matching these globs")
	flags.String("ext", "", "only check these extensions (comma-separated)")
	flags.String("type", "", "only check these type groups: binary, symbols, archive, package, script, source, doc, log")
	flags.String("min-size", "", "only check files at least this large (e.g., 1MB)")
	flags.Int("max-depth", 0, "maximum directory depth (0 = unlimited)")
	flags.Bool("reverse", false, "list paths Z-A")
	flags.IntP("workers", "w", 0, "directory walker workers (0 = auto)")

	// Input
	flags.String("from-file", "", "check the paths listed in this file instead of walking (- for stdin)")

	// Output flags
	flags.StringP("format", "o", "", "output format: "+fmt.Sprint(output.Available()))
	flags.String("template", "", "Go template for -o template")

	// Baseline regeneration
	flags.Bool("update", false, "write Updated<name> baselines keeping only used exclusions")
	flags.Bool("report-unused", false, "write Unused<name> baselines listing unused exclusions")
	flags.String("tag", "", "tag inserted into regenerated baseline names (Updated<stem>.<tag><ext>)")
	flags.String("out-dir", "", "directory for regenerated baselines (default: next to each baseline)")
	flags.StringSlice("extra", nil, "lines appended to every updated baseline")

	// Verdict and side effects
	flags.Bool("fail-on-unexpected", true, "exit non-zero when unexpected files are found")
	flags.Bool("fail-on-unused", false, "exit non-zero when unused exclusions remain")
	flags.Bool("watch", false, "re-run the check when the tree or the baseline changes")
	flags.Bool("no-history", false, "do not record this check in the history")

	for key, name := range map[string]string{
		"include":            "include",
		"exclude":            "exclude",
		"ext":                "ext",
		"type":               "type",
		"min_size":           "min-size",
		"max_depth":          "max-depth",
		"reverse":            "reverse",
		"workers":            "workers",
		"from_file":          "from-file",
		"output.format":      "format",
		"output.template":    "template",
		"update":             "update",
		"report_unused":      "report-unused",
		"output.tag":         "tag",
		"output.dir":         "out-dir",
		"extra":              "extra",
		"fail_on_unexpected": "fail-on-unexpected",
		"fail_on_unused":     "fail-on-unused",
		"watch":              "watch",
		"no_history":         "no-history",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(checkCmd)
}

// checkRequest is one check invocation, resolved from flags and config.
type checkRequest struct {
	Root             string
	FromFile         string
	Stdin            io.Reader
	Update           bool
	ReportUnused     bool
	Extra            []string
	FailOnUnexpected bool
	FailOnUnused     bool
	Record           bool
	Fs               afero.Fs
}

// checkOutcome is what a single check produced.
type checkOutcome struct {
	Report *output.Report
	// Baselines lists every loaded baseline file, imports included.
	Baselines []string
}

// checkFailedError reports a check whose verdict failed. main maps it to
// exit status 2.
type checkFailedError struct {
	unexpected int
	unused     int
}

func (e *checkFailedError) Error() string {
	switch {
	case e.unexpected > 0 && e.unused > 0:
		return fmt.Sprintf("check failed: %d unexpected files, %d unused exclusions", e.unexpected, e.unused)
	case e.unexpected > 0:
		return fmt.Sprintf("check failed: %d unexpected files", e.unexpected)
	default:
		return fmt.Sprintf("check failed: %d unused exclusions", e.unused)
	}
}

// verdict returns a checkFailedError when the report fails the request.
func (req checkRequest) verdict(r *output.Report) error {
	failed := &checkFailedError{}
	if req.FailOnUnexpected {
		failed.unexpected = len(r.Unexpected)
	}
	if req.FailOnUnused {
		failed.unused = len(r.Unused)
	}
	if failed.unexpected > 0 || failed.unused > 0 {
		return failed
	}
	return nil
}

// runCheck is the check command handler.
func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req := checkRequest{
		Root:             ".",
		FromFile:         viper.GetString("from_file"),
		Stdin:            cmd.InOrStdin(),
		Update:           viper.GetBool("update"),
		ReportUnused:     viper.GetBool("report_unused"),
		Extra:            viper.GetStringSlice("extra"),
		FailOnUnexpected: viper.GetBool("fail_on_unexpected"),
		FailOnUnused:     viper.GetBool("fail_on_unused"),
		Record:           cfg.History.Enabled && !viper.GetBool("no_history"),
		Fs:               afero.NewOsFs(),
	}
	if len(args) > 0 {
		req.Root = args[0]
	}
	if req.Root, err = config.ExpandPath(req.Root); err != nil {
		return fmt.Errorf("failed to expand path: %w", err)
	}
	if viper.GetInt("workers") > 0 {
		cfg.Workers = viper.GetInt("workers")
	}

	formatter, err := resolveFormatter(cfg)
	if err != nil {
		return err
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if viper.GetBool("watch") {
		if req.FromFile != "" {
			return errors.New("--watch cannot be combined with --from-file")
		}
		return watchCheck(ctx, cfg, req, formatter, cmd.OutOrStdout())
	}

	outcome, err := runCheckOnce(ctx, cfg, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			printInfo("Check cancelled")
			return nil
		}
		return err
	}

	if err := render(cmd.OutOrStdout(), formatter, outcome.Report); err != nil {
		return err
	}
	return req.verdict(outcome.Report)
}

// resolveFormatter returns the configured output formatter.
func resolveFormatter(cfg *config.Config) (output.Formatter, error) {
	format := cfg.Output.Format
	if format == "" {
		format = config.DefaultFormat
	}

	if format == "template" {
		if cfg.Output.Template == "" {
			return nil, errors.New("--template is required when using -o template")
		}
		return output.NewTemplateFormatter(cfg.Output.Template), nil
	}

	formatter, err := output.Get(format)
	if err != nil {
		return nil, fmt.Errorf("unknown output format %q: available formats are %v", format, output.Available())
	}
	return formatter, nil
}

// render formats the report and writes it to w.
func render(w io.Writer, formatter output.Formatter, r *output.Report) error {
	var buf bytes.Buffer
	if err := formatter.Format(&buf, r); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// runCheckOnce loads the baseline, checks the tree or the listed paths,
// and applies the requested side effects.
func runCheckOnce(ctx context.Context, cfg *config.Config, req checkRequest) (*checkOutcome, error) {
	logger := logging.Get("engine")

	matcher, err := buildMatcher(cfg)
	if err != nil {
		return nil, err
	}

	eng, err := openEngine(cfg, matcher)
	if err != nil {
		return nil, err
	}

	f, err := buildFilter(matcher)
	if err != nil {
		return nil, err
	}

	opts := scanner.DefaultOptions(req.Root)
	opts.Suffix = cfg.Suffix
	opts.Filter = f
	if cfg.SkipDirs != nil {
		opts.SkipDirs = cfg.SkipDirs
	}
	if cfg.Workers > 0 {
		opts.Workers = cfg.Workers
	}

	sc := scanner.New(eng, opts)

	var res *scanner.Result
	if req.FromFile != "" {
		paths, err := readPathList(req)
		if err != nil {
			return nil, err
		}
		printVerbose("Checking %d listed paths against %s", len(paths), eng.Source())
		res, err = sc.CheckPaths(ctx, paths)
		if err != nil {
			return nil, err
		}
	} else {
		printVerbose("Checking %s against %s", req.Root, eng.Source())
		res, err = sc.Scan(ctx)
		if err != nil {
			return nil, err
		}
	}

	report := output.NewReport(eng.Source(), res, eng)

	if req.Update {
		bs, err := eng.GenerateBaseline(cfg.Output.Tag, req.Extra)
		if err != nil {
			return nil, fmt.Errorf("failed to generate baseline: %w", err)
		}
		written, err := exclusions.WriteBaselines(req.Fs, cfg.Output.Dir, bs)
		if err != nil {
			return nil, fmt.Errorf("failed to write baseline: %w", err)
		}
		report.Written = append(report.Written, written...)
	}

	if req.ReportUnused {
		bs, err := eng.UnusedReport(cfg.Output.Tag)
		if err != nil {
			return nil, fmt.Errorf("failed to generate unused report: %w", err)
		}
		written, err := exclusions.WriteBaselines(req.Fs, cfg.Output.Dir, bs)
		if err != nil {
			return nil, fmt.Errorf("failed to write unused report: %w", err)
		}
		report.Written = append(report.Written, written...)
	}

	if req.Record {
		if err := recordRun(cfg, report); err != nil {
			// History is best effort; the check itself succeeded.
			logger.Warn("failed to record run", "error", err)
			report.Warnings = append(report.Warnings, fmt.Sprintf("history: %v", err))
		}
	}

	st := eng.Stats()
	logger.Info("check complete",
		"root", res.Root,
		"suffix", cfg.Suffix,
		"checked", res.Checked,
		"unexpected", len(res.Unexpected),
		"queries", st.Queries,
		"hits", st.Hits,
		"unused", st.Unused,
		"partial", st.Partial,
	)

	return &checkOutcome{Report: report, Baselines: eng.Files()}, nil
}

// readPathList reads the --from-file list; "-" reads stdin.
func readPathList(req checkRequest) ([]string, error) {
	if req.FromFile == "-" {
		return scanner.ReadPaths(req.Stdin)
	}

	f, err := req.Fs.Open(req.FromFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open path list: %w", err)
	}
	defer f.Close()

	return scanner.ReadPaths(f)
}

// recordRun stores the report in the history and prunes expired runs.
func recordRun(cfg *config.Config, r *output.Report) error {
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()

	run := &history.Run{
		Root:     r.Root,
		Baseline: r.Baseline,
		Suffix:   r.Suffix,
		Tag:      cfg.Output.Tag,
		Elapsed:  r.Stats.Duration,
		Summary: history.Summary{
			Checked:    r.Stats.Checked,
			Excluded:   r.Stats.Excluded,
			Unexpected: r.Stats.Unexpected,
			Entries:    r.Stats.Entries,
			Used:       r.Stats.Used,
			Partial:    r.Stats.Partial,
			Unused:     r.Stats.Unused,
		},
		Written: r.Written,
	}
	for _, f := range r.Unexpected {
		run.Unexpected = append(run.Unexpected, f.Path)
	}
	for _, s := range r.Unused {
		run.Unused = append(run.Unused, history.Stale{
			File:     s.File,
			Pattern:  s.Pattern,
			Line:     s.Line,
			Suffixes: s.Suffixes,
		})
	}

	if err := store.Record(run); err != nil {
		return err
	}
	r.RunID = run.ID

	if cfg.History.RetentionDays > 0 {
		retention := time.Duration(cfg.History.RetentionDays) * 24 * time.Hour
		if _, err := store.Cleanup(retention); err != nil {
			return err
		}
	}
	return nil
}

// watchCheck runs the check, then re-runs it whenever the tree or any
// loaded baseline changes, until ctx is cancelled.
func watchCheck(ctx context.Context, cfg *config.Config, req checkRequest, formatter output.Formatter, out io.Writer) error {
	w, err := watcher.New(watcher.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	var written map[string]bool

	run := func() {
		outcome, err := runCheckOnce(ctx, cfg, req)
		if err != nil {
			printError("%v", err)
			// Keep watching the configured baseline so a fix is noticed.
			if path, pathErr := baselinePath(cfg); pathErr == nil {
				_ = w.WatchFiles(path)
			}
			return
		}
		if err := render(out, formatter, outcome.Report); err != nil {
			printError("%v", err)
		}
		if err := w.WatchFiles(outcome.Baselines...); err != nil {
			printError("failed to watch baselines: %v", err)
		}
		written = make(map[string]bool, len(outcome.Report.Written))
		for _, p := range outcome.Report.Written {
			if abs, err := filepath.Abs(p); err == nil {
				written[abs] = true
			}
		}
	}

	run()

	if err := w.WatchTree(req.Root, cfg.SkipDirs...); err != nil {
		return fmt.Errorf("failed to watch %s: %w", req.Root, err)
	}
	printInfo("Watching %s for changes (Ctrl+C to stop)...", req.Root)

	err = w.Run(ctx, func(ch watcher.Change) {
		if onlyWritten(ch.Paths, written) {
			return
		}
		printVerbose("Change detected in %d paths (baseline: %t)", len(ch.Paths), ch.Baseline)
		run()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// onlyWritten reports whether every changed path is a file the check wrote.
func onlyWritten(paths []string, written map[string]bool) bool {
	if len(written) == 0 {
		return false
	}
	for _, p := range paths {
		if !written[p] {
			return false
		}
	}
	return true
}
