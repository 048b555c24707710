package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func isolate(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	return tempDir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Baseline != DefaultBaseline {
		t.Errorf("Baseline = %q, want %q", cfg.Baseline, DefaultBaseline)
	}

	if !cfg.SuffixAware {
		t.Error("SuffixAware = false, want true")
	}

	if cfg.Glob.Dialect != DefaultGlobDialect {
		t.Errorf("Glob.Dialect = %q, want %q", cfg.Glob.Dialect, DefaultGlobDialect)
	}

	if cfg.Glob.CacheSize != DefaultGlobCacheSize {
		t.Errorf("Glob.CacheSize = %d, want %d", cfg.Glob.CacheSize, DefaultGlobCacheSize)
	}

	if cfg.Output.Format != DefaultFormat {
		t.Errorf("Output.Format = %q, want %q", cfg.Output.Format, DefaultFormat)
	}

	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}

	if cfg.History.RetentionDays != DefaultRetentionDays {
		t.Errorf("History.RetentionDays = %d, want %d", cfg.History.RetentionDays, DefaultRetentionDays)
	}

	if len(cfg.SkipDirs) != len(DefaultSkipDirs) {
		t.Errorf("len(SkipDirs) = %d, want %d", len(cfg.SkipDirs), len(DefaultSkipDirs))
	}

	if cfg.Logging.Components["watcher"] != "warn" {
		t.Errorf("Logging.Components[watcher] = %q, want %q", cfg.Logging.Components["watcher"], "warn")
	}
}

func TestLoad_FromFile(t *testing.T) {
	tempDir := isolate(t)
	writeConfig(t, filepath.Join(tempDir, ".config", "baseliner"), `
baseline: /repo/eng/baseline.txt
scope: ^src/
suffix: x64
suffix_aware: false
glob:
  dialect: doublestar
  cache_size: 64
output:
  format: json
  tag: ci
  dir: ~/out
history:
  enabled: false
  path: /custom/history
  retention_days: 7
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Baseline != "/repo/eng/baseline.txt" {
		t.Errorf("Baseline = %q, want %q", cfg.Baseline, "/repo/eng/baseline.txt")
	}

	if cfg.Scope != "^src/" {
		t.Errorf("Scope = %q, want %q", cfg.Scope, "^src/")
	}

	if cfg.Suffix != "x64" {
		t.Errorf("Suffix = %q, want %q", cfg.Suffix, "x64")
	}

	if cfg.SuffixAware {
		t.Error("SuffixAware = true, want false")
	}

	if cfg.Glob.Dialect != "doublestar" || cfg.Glob.CacheSize != 64 {
		t.Errorf("Glob = %+v, want doublestar/64", cfg.Glob)
	}

	if cfg.Output.Format != "json" || cfg.Output.Tag != "ci" {
		t.Errorf("Output = %+v, want json/ci", cfg.Output)
	}

	if want := filepath.Join(tempDir, "out"); cfg.Output.Dir != want {
		t.Errorf("Output.Dir = %q, want %q", cfg.Output.Dir, want)
	}

	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want false")
	}

	if cfg.HistoryPath() != "/custom/history" {
		t.Errorf("HistoryPath() = %q, want %q", cfg.HistoryPath(), "/custom/history")
	}

	if cfg.History.RetentionDays != 7 {
		t.Errorf("History.RetentionDays = %d, want %d", cfg.History.RetentionDays, 7)
	}
}

func TestLoad_XDGConfigHome(t *testing.T) {
	tempDir := isolate(t)
	xdgHome := filepath.Join(tempDir, "xdg-config")
	writeConfig(t, filepath.Join(xdgHome, "baseliner"), "suffix: arm64\n")
	t.Setenv("XDG_CONFIG_HOME", xdgHome)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Suffix != "arm64" {
		t.Errorf("Suffix = %q, want %q", cfg.Suffix, "arm64")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("BASELINER_SUFFIX", "linux-x64")
	t.Setenv("BASELINER_GLOB_DIALECT", "doublestar")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Suffix != "linux-x64" {
		t.Errorf("Suffix = %q, want %q", cfg.Suffix, "linux-x64")
	}

	if cfg.Glob.Dialect != "doublestar" {
		t.Errorf("Glob.Dialect = %q, want %q", cfg.Glob.Dialect, "doublestar")
	}
}

func TestLoadFile_Explicit(t *testing.T) {
	tempDir := isolate(t)
	path := writeConfig(t, filepath.Join(tempDir, "elsewhere"), "output:\n  format: yaml\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Output.Format != "yaml" {
		t.Errorf("Output.Format = %q, want %q", cfg.Output.Format, "yaml")
	}
}

func TestLoadFile_MissingExplicit(t *testing.T) {
	tempDir := isolate(t)

	if _, err := LoadFile(filepath.Join(tempDir, "missing.yaml")); err == nil {
		t.Error("LoadFile() error = nil, want error for a missing explicit file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tempDir := isolate(t)
	writeConfig(t, filepath.Join(tempDir, ".config", "baseliner"), "baseline: [unterminated\n")

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil, want parse error")
	}
}

func TestPrepare_FlagBinding(t *testing.T) {
	isolate(t)

	v := viper.New()
	if err := Prepare(v, ""); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	v.Set("suffix", "from-flag")

	cfg, err := Decode(v)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if cfg.Suffix != "from-flag" {
		t.Errorf("Suffix = %q, want %q", cfg.Suffix, "from-flag")
	}
}

func TestLoggingOptions(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	opts, err := cfg.LoggingOptions("debug")
	if err != nil {
		t.Fatalf("LoggingOptions() error = %v", err)
	}

	if opts.Rotation.MaxSize != 10*1000*1000 {
		t.Errorf("Rotation.MaxSize = %d, want %d", opts.Rotation.MaxSize, 10*1000*1000)
	}

	if opts.ConsoleLevel != "debug" {
		t.Errorf("ConsoleLevel = %q, want %q", opts.ConsoleLevel, "debug")
	}

	if !opts.UseDefaultPath {
		t.Error("UseDefaultPath = false, want true")
	}

	cfg.Logging.Rotation.MaxSize = "lots"
	if _, err := cfg.LoggingOptions(""); err == nil {
		t.Error("LoggingOptions() error = nil, want error for invalid max_size")
	}
}

func TestWriteDefault(t *testing.T) {
	tempDir := isolate(t)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	want := filepath.Join(tempDir, ".config", "baseliner", "config.yaml")
	if path != want {
		t.Errorf("WriteDefault() path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	if !strings.Contains(string(data), "baseline: "+DefaultBaseline) {
		t.Error("default config does not name the default baseline")
	}

	// The written file must load back to the defaults.
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Glob.CacheSize != DefaultGlobCacheSize {
		t.Errorf("Glob.CacheSize = %d, want %d", cfg.Glob.CacheSize, DefaultGlobCacheSize)
	}

	// An existing file is left untouched.
	if err := os.WriteFile(path, []byte("suffix: kept\n"), 0o644); err != nil {
		t.Fatalf("failed to overwrite config: %v", err)
	}
	if _, err := WriteDefault(); err != nil {
		t.Fatalf("WriteDefault() second call error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "suffix: kept\n" {
		t.Errorf("existing config was overwritten: %q", data)
	}
}

func TestExpandPath(t *testing.T) {
	tempDir := isolate(t)

	tests := []struct {
		in   string
		want string
	}{
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"~/baselines", filepath.Join(tempDir, "baselines")},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExpandPath(tt.in)
			if err != nil {
				t.Fatalf("ExpandPath(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
