// Package configfile reads the user configuration files named by the
// config_paths setting.
package configfile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ReadError reports a file that could not be read or parsed.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read config %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Read merges the files in paths, later files winning key by key. Relative
// paths are resolved against baseDir. The format follows the file extension
// (yaml, yml, json, toml); files without one are parsed as YAML.
//
// Files that fail are skipped: the returned map holds everything that could
// be read and the error joins one *ReadError per failed file. Keys are
// lower-cased.
func Read(baseDir string, paths ...string) (map[string]any, error) {
	merged := viper.New()
	var errs []error

	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}

		v := viper.New()
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			errs = append(errs, &ReadError{Path: path, Err: err})
			continue
		}
		if err := merged.MergeConfigMap(v.AllSettings()); err != nil {
			errs = append(errs, &ReadError{Path: path, Err: err})
		}
	}

	return merged.AllSettings(), errors.Join(errs...)
}
