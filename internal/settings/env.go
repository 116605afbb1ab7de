package settings

import (
	"maps"
	"os"
	"strings"

	"github.com/spf13/cast"
)

// Environ is an immutable copy of a process environment.
type Environ map[string]string

// CaptureEnviron copies the current process environment.
func CaptureEnviron() Environ {
	return EnvironFromList(os.Environ())
}

// EnvironFromList parses KEY=VALUE entries. Later duplicates win.
func EnvironFromList(list []string) Environ {
	env := make(Environ, len(list))
	for _, entry := range list {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// Lookup resolves a variable from the snapshot.
func (e Environ) Lookup(key string) (string, bool) {
	value, ok := e[key]
	return value, ok
}

// List renders the snapshot as KEY=VALUE entries.
func (e Environ) List() []string {
	list := make([]string, 0, len(e))
	for key, value := range e {
		list = append(list, key+"="+value)
	}
	return list
}

func (e Environ) clone() Environ {
	if e == nil {
		return Environ{}
	}
	return maps.Clone(e)
}

// applyEnvironment reads recognised variables and inferred values.
func applyEnvironment(s *Settings, env Environ) error {
	for _, field := range registry {
		if field.Env == "" {
			continue
		}
		raw, ok := env.Lookup(field.Env)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		value, err := parseRaw(field, raw)
		if err == nil {
			value, err = checkValue(field, value)
		}
		if err != nil {
			return &InvalidValueError{Name: field.Name, Value: raw, Kind: field.Kind, Source: SourceEnv, Err: err}
		}
		s.setFrom(field.Name, value, SourceEnv)
	}

	if detectCI(env) {
		s.setFrom(CI, true, SourceEnv)
	}

	switch s.String(Mode) {
	case ModeOffline, ModeDryrun:
		s.setFrom(Offline, true, SourceEnv)
	}
	return nil
}

func detectCI(env Environ) bool {
	for _, key := range ciVariables {
		raw, ok := env.Lookup(key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		if enabled, err := cast.ToBoolE(raw); err == nil && !enabled {
			continue
		}
		return true
	}
	return false
}
