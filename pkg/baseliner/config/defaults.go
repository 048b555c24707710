// Package config provides configuration management for baseliner.
package config

// Default configuration values for baseliner.
const (
	// DefaultBaseline is the baseline file used when none is specified.
	DefaultBaseline = "baseline.txt"

	// DefaultGlobDialect is the glob syntax of baseline patterns.
	DefaultGlobDialect = "gobwas"

	// DefaultGlobCacheSize is the number of compiled patterns kept in memory.
	DefaultGlobCacheSize = 1024

	// DefaultFormat is the output format of check.
	DefaultFormat = "pretty"

	// DefaultRetentionDays is the default number of days to retain check history.
	DefaultRetentionDays = 30

	// DefaultWorkers is the number of directory walker workers; 0 lets
	// fastwalk pick.
	DefaultWorkers = 0
)

// DefaultSkipDirs contains directories that are never descended into.
var DefaultSkipDirs = []string{
	".git",
	".hg",
	".svn",
}

// DefaultComponentLevels contains per-component log level overrides.
var DefaultComponentLevels = map[string]string{
	"loader":  "info",
	"engine":  "info",
	"scanner": "info",
	"watcher": "warn",
	"history": "info",
}
