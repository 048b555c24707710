package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/jamesainslie/baseliner/pkg/baseliner/config"
	"github.com/jamesainslie/baseliner/pkg/baseliner/exclusions"
	"github.com/jamesainslie/baseliner/pkg/baseliner/filter"
	"github.com/jamesainslie/baseliner/pkg/baseliner/glob"
	"github.com/jamesainslie/baseliner/pkg/baseliner/logging"
)

// buildMatcher creates the glob matcher selected by the configuration.
func buildMatcher(cfg *config.Config) (glob.Matcher, error) {
	dialect, err := glob.ParseDialect(cfg.Glob.Dialect)
	if err != nil {
		return nil, err
	}
	return glob.New(dialect, cfg.Glob.CacheSize)
}

// baselinePath resolves the configured baseline to an absolute, clean path.
func baselinePath(cfg *config.Config) (string, error) {
	path := cfg.Baseline
	if path == "" {
		path = config.DefaultBaseline
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve baseline path: %w", err)
	}
	return abs, nil
}

// openEngine loads the configured baseline.
func openEngine(cfg *config.Config, matcher glob.Matcher) (*exclusions.Engine, error) {
	path, err := baselinePath(cfg)
	if err != nil {
		return nil, err
	}

	printVerbose("Loading baseline %s (suffix-aware: %t, scope: %q)", path, cfg.SuffixAware, cfg.Scope)

	eng, err := exclusions.New(path,
		exclusions.WithMatcher(matcher),
		exclusions.WithSuffixAware(cfg.SuffixAware),
		exclusions.WithScopePattern(cfg.Scope),
		exclusions.WithLogger(logging.Get("loader")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline: %w", err)
	}
	return eng, nil
}

// buildFilter creates a filter.Filter from the check flags. Include and
// exclude patterns use the same glob dialect as the baseline.
func buildFilter(matcher glob.Matcher) (*filter.Filter, error) {
	opts := []filter.Option{
		filter.WithMatcher(matcher),
		filter.WithSortBy(filter.SortPath),
	}

	// File types (expand to extensions)
	if types := viper.GetString("type"); types != "" {
		opts = append(opts, filter.WithTypeGroups(parseCommaSeparated(types)...))
	}

	// Extensions (added to any type groups)
	if extStr := viper.GetString("ext"); extStr != "" {
		exts := parseCommaSeparated(extStr)
		for i, ext := range exts {
			if !strings.HasPrefix(ext, ".") {
				exts[i] = "." + ext
			}
		}
		opts = append(opts, filter.WithExtensions(exts...))
	}

	if includeStr := viper.GetString("include"); includeStr != "" {
		opts = append(opts, filter.WithInclude(parseCommaSeparated(includeStr)...))
	}

	if exclude := viper.GetStringSlice("exclude"); len(exclude) > 0 {
		opts = append(opts, filter.WithExclude(exclude...))
	}

	if minSizeStr := viper.GetString("min_size"); minSizeStr != "" {
		minSize, err := filter.ParseSize(minSizeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid min-size %q: %w", minSizeStr, err)
		}
		opts = append(opts, filter.WithMinSize(minSize))
	}

	if maxDepth := viper.GetInt("max_depth"); maxDepth > 0 {
		opts = append(opts, filter.WithMaxDepth(maxDepth))
	}

	opts = append(opts, filter.WithSortDescending(viper.GetBool("reverse")))

	f, err := filter.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build filter: %w", err)
	}
	return f, nil
}

// parseCommaSeparated splits a comma-separated string and trims whitespace.
func parseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
