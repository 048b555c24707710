//go:build stave

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
)

// Default target when running `stave` with no arguments.
var Default = Build

// Aliases for common targets.
var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"i": Install,
	"c": Clean,
}

const (
	binaryName  = "baseliner"
	mainPkg     = "./cmd/baseliner"
	binDir      = "bin"
	coverFile   = "coverage.out"
	smokeSuffix = "smoke"
)

// All runs the complete build pipeline.
func All() error {
	st.Deps(Lint, Test)
	st.Deps(Build, Smoke)
	return nil
}

// Build compiles the baseliner binary.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating bin directory: %w", err)
	}
	return sh.RunV("go", "build", "-ldflags", buildLdflags(), "-o", binaryPath(), mainPkg)
}

// Install builds and installs baseliner to the user's GOBIN or /usr/local/bin.
func Install() error {
	st.Deps(Build)

	bin, err := goBin()
	if err != nil {
		return err
	}

	dst := filepath.Join(bin, exe(binaryName))
	if st.Verbose() {
		fmt.Printf("Installing %s to %s\n", binaryPath(), dst)
	}
	return sh.Copy(dst, binaryPath())
}

// Uninstall removes the installed baseliner binary.
func Uninstall() error {
	bin, err := goBin()
	if err != nil {
		return err
	}

	target := filepath.Join(bin, exe(binaryName))
	if _, err := os.Stat(target); os.IsNotExist(err) {
		if st.Verbose() {
			fmt.Printf("Binary not found at %s, nothing to uninstall\n", target)
		}
		return nil
	}

	if st.Verbose() {
		fmt.Printf("Removing %s\n", target)
	}
	return os.Remove(target)
}

// Test runs all tests with race detection and coverage.
func Test() error {
	return sh.RunV("go", "test", "-race", "-cover", "./...")
}

// Cover writes a coverage profile and prints the per-function summary.
func Cover() error {
	if err := sh.RunV("go", "test", "-coverprofile="+coverFile, "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func="+coverFile)
}

// Smoke builds the binary and checks a throwaway tree against a baseline,
// exercising loading, suffix matching and baseline regeneration end to end.
func Smoke() error {
	st.Deps(Build)

	dir, err := os.MkdirTemp("", "baseliner-smoke")
	if err != nil {
		return fmt.Errorf("creating smoke directory: %w", err)
	}
	defer os.RemoveAll(dir)

	tree := filepath.Join(dir, "tree")
	files := map[string]string{
		filepath.Join(tree, "bin", "tool"):       "",
		filepath.Join(tree, "bin", "tool.debug"): "",
		filepath.Join(dir, "baseline.txt"):       "bin/tool\nbin/*.debug|" + smokeSuffix + "\n",
	}
	for path, content := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}

	err = sh.RunV(binaryPath(), "check", tree,
		"--baseline", filepath.Join(dir, "baseline.txt"),
		"--suffix", smokeSuffix,
		"--fail-on-unused",
		"--update",
		"--no-history",
		"--format", "plain",
	)
	if err != nil {
		return fmt.Errorf("smoke check failed: %w", err)
	}

	updated, err := os.ReadFile(filepath.Join(dir, "Updatedbaseline.txt"))
	if err != nil {
		return fmt.Errorf("reading updated baseline: %w", err)
	}
	if want := "bin/tool\nbin/*.debug|" + smokeSuffix + "\n"; string(updated) != want {
		return fmt.Errorf("updated baseline = %q, want %q", updated, want)
	}
	return nil
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if st.Verbose() {
		fmt.Printf("Removing %s/ and %s\n", binDir, coverFile)
	}
	if err := sh.Rm(coverFile); err != nil {
		return err
	}
	return sh.Rm(binDir + "/")
}

// Fmt formats all Go code.
func Fmt() error {
	if err := sh.Run("gofmt", "-w", "."); err != nil {
		return fmt.Errorf("running gofmt: %w", err)
	}
	return sh.Run("goimports", "-w", ".")
}

// Tidy runs go mod tidy.
func Tidy() error {
	return sh.RunV("go", "mod", "tidy")
}

func binaryPath() string {
	return filepath.Join(binDir, exe(binaryName))
}

func exe(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// goBin returns GOBIN, $GOPATH/bin, or /usr/local/bin, in that order.
func goBin() (string, error) {
	gocmd := st.GoCmd()
	bin, err := sh.Output(gocmd, "env", "GOBIN")
	if err != nil {
		return "", fmt.Errorf("determining GOBIN: %w", err)
	}
	if bin != "" {
		return bin, nil
	}

	gopath, err := sh.Output(gocmd, "env", "GOPATH")
	if err != nil {
		return "", fmt.Errorf("determining GOPATH: %w", err)
	}
	if gopath != "" {
		return filepath.Join(gopath, "bin"), nil
	}
	return "/usr/local/bin", nil
}

// buildLdflags returns ldflags for version injection.
func buildLdflags() string {
	version := "dev"
	commit := "unknown"
	date := time.Now().Format(time.RFC3339)

	if v, err := sh.Output("git", "describe", "--tags", "--always"); err == nil && v != "" {
		version = strings.TrimSpace(v)
	}

	if c, err := sh.Output("git", "rev-parse", "--short", "HEAD"); err == nil && c != "" {
		commit = strings.TrimSpace(c)
	}

	// Variables of package main are addressed as main.<name>.
	return fmt.Sprintf("-X main.version=%s -X main.commit=%s -X main.date=%s", version, commit, date)
}
