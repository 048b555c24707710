package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/baseliner/pkg/baseliner/config"
	"github.com/jamesainslie/baseliner/pkg/baseliner/logging"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "baseliner",
		Short: "Check directory trees against baseline exclusion files",
		Long: `Baseliner checks the files of a directory tree against baseline
exclusion files: lists of glob patterns, optionally scoped to suffixes
such as target platforms, that name the files allowed to be there.

It reports files no exclusion covers, exclusions nothing matched, and can
write pruned baselines that keep only what was used.

Examples:
  baseliner check ./artifacts -b eng/baseline.txt
  baseliner check ./artifacts --suffix linux-x64 --update --tag ci
  find out -type f | baseliner check --from-file - -o paths
  baseliner list --suffix linux-x64
  baseliner history`,
		SilenceUsage:      true,
		PersistentPreRunE: initializeLogging,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/baseliner/config.yaml)")
	flags.StringP("baseline", "b", "", "baseline file (default: baseline.txt)")
	flags.String("suffix", "", "suffix to check against (e.g., linux-x64)")
	flags.String("scope", "", "only load entries whose pattern matches this regular expression")
	flags.Bool("suffix-aware", true, "honor |suffix qualifiers; false applies every entry to every suffix")
	flags.String("glob", "", "glob dialect: gobwas or doublestar")
	flags.BoolP("quiet", "q", false, "minimal output")
	flags.BoolP("verbose", "v", false, "debug output")

	// Bind flags to viper
	_ = viper.BindPFlag("baseline", flags.Lookup("baseline"))
	_ = viper.BindPFlag("suffix", flags.Lookup("suffix"))
	_ = viper.BindPFlag("scope", flags.Lookup("scope"))
	_ = viper.BindPFlag("suffix_aware", flags.Lookup("suffix-aware"))
	_ = viper.BindPFlag("glob.dialect", flags.Lookup("glob"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	v := viper.GetViper()
	if err := config.Prepare(v, cfgFile); err != nil {
		printError("%v", err)
		return
	}
	if err := config.Read(v); err != nil {
		printError("%v", err)
	}
}

// loadConfig decodes the merged flags, environment and config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// initializeLogging is the PersistentPreRunE hook. Verbose mode mirrors
// debug logs to stderr.
func initializeLogging(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	console := ""
	if getVerbose() && !getQuiet() {
		console = "debug"
	}

	opts, err := cfg.LoggingOptions(console)
	if err != nil {
		return err
	}
	if err := logging.Init(opts); err != nil {
		// A read-only state directory must not block checks.
		opts.Path = ""
		opts.UseDefaultPath = false
		if retryErr := logging.Init(opts); retryErr != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		printVerbose("File logging disabled: %v", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message to stderr if quiet mode is not enabled.
// Reports go to stdout so they can be piped.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
