package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/baseliner/pkg/baseliner/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage baseliner configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/baseliner/config.yaml (if set)
  2. ~/.config/baseliner/config.yaml

Environment variables can override config file settings using the BASELINER_ prefix:
  BASELINER_BASELINE=eng/baseline.txt
  BASELINER_SUFFIX=linux-x64
  BASELINER_GLOB_DIALECT=doublestar`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		if _, statErr := os.Stat(configFile); statErr == nil {
			fmt.Fprintf(out, "Config file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(out, "Config file: (using defaults, no file found)\n\n")
		}
	} else {
		fmt.Fprintf(out, "Config file: (using defaults, no file found)\n\n")
	}

	printConfig(out, cfg)
	return nil
}

// printConfig writes cfg and any environment overrides to w.
func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "----------------------")
	fmt.Fprintf(w, "baseline:                %s\n", cfg.Baseline)
	fmt.Fprintf(w, "scope:                   %s\n", cfg.Scope)
	fmt.Fprintf(w, "suffix:                  %s\n", cfg.Suffix)
	fmt.Fprintf(w, "suffix_aware:            %t\n", cfg.SuffixAware)
	fmt.Fprintf(w, "skip_dirs:               %v\n", cfg.SkipDirs)
	fmt.Fprintf(w, "workers:                 %d\n", cfg.Workers)
	fmt.Fprintf(w, "glob.dialect:            %s\n", cfg.Glob.Dialect)
	fmt.Fprintf(w, "glob.cache_size:         %d\n", cfg.Glob.CacheSize)
	fmt.Fprintf(w, "output.format:           %s\n", cfg.Output.Format)
	fmt.Fprintf(w, "output.tag:              %s\n", cfg.Output.Tag)
	fmt.Fprintf(w, "output.dir:              %s\n", cfg.Output.Dir)
	fmt.Fprintf(w, "history.enabled:         %t\n", cfg.History.Enabled)
	fmt.Fprintf(w, "history.path:            %s\n", cfg.HistoryPath())
	fmt.Fprintf(w, "history.retention:       %d days\n", cfg.History.RetentionDays)
	fmt.Fprintf(w, "logging.level:           %s\n", cfg.Logging.Level)

	fmt.Fprintln(w, "\nEnvironment Overrides:")
	fmt.Fprintln(w, "----------------------")
	anyOverrides := false
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") {
			fmt.Fprintln(w, kv)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Fprintln(w, "(none)")
	}
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'baseliner config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
