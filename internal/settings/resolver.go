package settings

import (
	"fmt"
	"maps"
	"os"

	"runtrack/internal/logging"
)

// Option customises Resolve.
type Option func(*resolveOptions)

type resolveOptions struct {
	overrides  map[string]any
	environ    Environ
	flags      map[string]any
	logger     logging.Leveled
	workingDir string
	getwd      func() (string, error)
	observe    FlagObserver
}

// WithOverrides supplies explicit settings. They win over every other source.
func WithOverrides(overrides map[string]any) Option {
	copied := maps.Clone(overrides)
	return func(o *resolveOptions) {
		o.overrides = copied
	}
}

// WithEnviron supplies the environment snapshot to inspect. The map is copied.
func WithEnviron(env Environ) Option {
	copied := env.clone()
	return func(o *resolveOptions) {
		o.environ = copied
	}
}

// WithFlags supplies remote feature flags.
func WithFlags(flags map[string]any) Option {
	copied := maps.Clone(flags)
	return func(o *resolveOptions) {
		o.flags = copied
	}
}

// WithLogger sets the logger used for recoverable problems.
func WithLogger(logger logging.Leveled) Option {
	return func(o *resolveOptions) {
		o.logger = logger
	}
}

// WithWorkingDir fixes the directory used for computed path defaults.
func WithWorkingDir(dir string) Option {
	return func(o *resolveOptions) {
		o.workingDir = dir
	}
}

// WithFlagObserver registers a callback for remote flag handling.
func WithFlagObserver(observe FlagObserver) Option {
	return func(o *resolveOptions) {
		o.observe = observe
	}
}

// Resolve builds an unfrozen snapshot. Sources are layered from lowest to
// highest precedence: defaults, environment, remote flags, overrides.
//
// Invalid overrides and unparsable environment variables are returned as
// errors. Remote flags of the wrong type are logged and skipped.
func Resolve(opts ...Option) (*Settings, error) {
	options := resolveOptions{getwd: os.Getwd}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.environ == nil {
		options.environ = CaptureEnviron()
	}
	logger := logging.OrNop(options.logger)

	s := newSettings()
	for _, name := range sortedKeys(options.overrides) {
		if err := s.Set(name, options.overrides[name]); err != nil {
			return nil, err
		}
	}

	if err := applyDefaults(s, options); err != nil {
		return nil, err
	}
	if err := applyEnvironment(s, options.environ); err != nil {
		return nil, err
	}
	applyFlags(s, options.flags, logger, options.observe)

	return s, nil
}

// applyDefaults fills every gap without touching values already set.
func applyDefaults(s *Settings, options resolveOptions) error {
	for _, field := range registry {
		if _, set := s.sources[field.Name]; set {
			continue
		}
		value := field.Default
		if field.Name == RootDir {
			dir := options.workingDir
			if dir == "" {
				wd, err := options.getwd()
				if err != nil {
					return fmt.Errorf("resolve %s: %w", RootDir, err)
				}
				dir = wd
			}
			value = dir
		}
		if list, ok := value.([]string); ok {
			value = append([]string(nil), list...)
		}
		s.setFrom(field.Name, value, SourceDefault)
	}
	return nil
}
