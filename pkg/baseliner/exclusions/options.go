package exclusions

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/jamesainslie/baseliner/pkg/baseliner/glob"
	"github.com/jamesainslie/baseliner/pkg/baseliner/logging"
)

// Option configures a Loader or an Engine.
type Option func(*options)

type options struct {
	fs          afero.Fs
	matcher     glob.Matcher
	scope       *regexp.Regexp
	suffixAware bool
	logger      *logging.Logger
	err         error
}

func defaultOptions() options {
	return options{
		suffixAware: true,
	}
}

func buildOptions(opts []Option) (options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.err != nil {
		return o, o.err
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.matcher == nil {
		o.matcher = glob.Default()
	}
	return o, nil
}

func (o *options) log() *logging.Logger {
	if o.logger != nil {
		return o.logger
	}
	return logging.Get("exclusions")
}

// WithFs sets the file system baselines are read from. Defaults to the OS.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		if fs == nil {
			o.err = fmt.Errorf("%w: nil file system", ErrUsage)
			return
		}
		o.fs = fs
	}
}

// WithMatcher sets the glob matcher used by queries. Defaults to glob.Default.
func WithMatcher(m glob.Matcher) Option {
	return func(o *options) {
		if m == nil {
			o.err = fmt.Errorf("%w: nil matcher", ErrUsage)
			return
		}
		o.matcher = m
	}
}

// WithScopeFilter keeps only entries whose pattern matches re.
// A nil re keeps everything.
func WithScopeFilter(re *regexp.Regexp) Option {
	return func(o *options) {
		o.scope = re
	}
}

// WithScopePattern compiles expr as the scope filter. Blank means no filter.
func WithScopePattern(expr string) Option {
	return func(o *options) {
		if strings.TrimSpace(expr) == "" {
			o.scope = nil
			return
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			o.err = fmt.Errorf("compile scope filter %q: %w", expr, err)
			return
		}
		o.scope = re
	}
}

// WithSuffixAware selects the index variant. Defaults to true.
func WithSuffixAware(aware bool) Option {
	return func(o *options) {
		o.suffixAware = aware
	}
}

// WithLogger sets the logger. Defaults to the "exclusions" component logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
