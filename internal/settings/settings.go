package settings

import (
	"fmt"
	"maps"
	"slices"
	"sync/atomic"
	"time"
)

// Settings is a snapshot of every registered setting with its provenance.
//
// A snapshot is built by Resolve and frozen before it is shared. Frozen
// snapshots are safe for concurrent readers; unfrozen ones belong to a single
// goroutine.
type Settings struct {
	values  map[string]any
	sources map[string]ValueSource
	frozen  atomic.Bool
}

func newSettings() *Settings {
	return &Settings{
		values:  make(map[string]any, len(registry)),
		sources: make(map[string]ValueSource, len(registry)),
	}
}

// Get returns the value of name and whether it is set.
func (s *Settings) Get(name string) (any, bool) {
	value, ok := s.values[name]
	if !ok {
		return nil, false
	}
	if list, isList := value.([]string); isList {
		return slices.Clone(list), true
	}
	return value, true
}

// String returns a string setting, or "" when unset.
func (s *Settings) String(name string) string {
	v, _ := s.values[name].(string)
	return v
}

// Bool returns a boolean setting, or false when unset.
func (s *Settings) Bool(name string) bool {
	v, _ := s.values[name].(bool)
	return v
}

// StringSlice returns a copy of a list setting.
func (s *Settings) StringSlice(name string) []string {
	v, _ := s.values[name].([]string)
	return slices.Clone(v)
}

// Duration returns a duration setting, or zero when unset.
func (s *Settings) Duration(name string) time.Duration {
	v, _ := s.values[name].(time.Duration)
	return v
}

// Source returns the origin of name.
func (s *Settings) Source(name string) ValueSource {
	return s.sources[name]
}

// Sources returns a copy of the provenance map.
func (s *Settings) Sources() map[string]ValueSource {
	return maps.Clone(s.sources)
}

// Names returns the set settings in registry order.
func (s *Settings) Names() []string {
	names := make([]string, 0, len(s.values))
	for _, field := range registry {
		if _, ok := s.values[field.Name]; ok {
			names = append(names, field.Name)
		}
	}
	return names
}

// Set assigns an explicit value. It fails on frozen snapshots, unknown names
// and values of the wrong type.
func (s *Settings) Set(name string, value any) error {
	if s.frozen.Load() {
		return &FrozenSettingsError{Field: name}
	}
	field, ok := Lookup(name)
	if !ok {
		return &UnknownSettingError{Name: name}
	}
	checked, err := checkValue(field, value)
	if err != nil {
		return &InvalidValueError{Name: name, Value: value, Kind: field.Kind, Source: SourceOverride, Err: err}
	}
	s.values[name] = checked
	s.sources[name] = SourceOverride
	return nil
}

// Update applies every entry of values as an explicit override. Entries are
// applied in registry order and the first failure stops the update.
func (s *Settings) Update(values map[string]any) error {
	names := sortedKeys(values)
	if len(names) > 0 && s.frozen.Load() {
		return &FrozenSettingsError{Field: names[0]}
	}
	for _, name := range names {
		if err := s.Set(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// Freeze makes the snapshot read-only. Freezing twice is a no-op.
func (s *Settings) Freeze() {
	s.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (s *Settings) Frozen() bool {
	return s.frozen.Load()
}

// Derive returns an unfrozen copy with overrides applied. The receiver is
// never modified.
func (s *Settings) Derive(overrides map[string]any) (*Settings, error) {
	derived := s.clone()
	if err := derived.Update(overrides); err != nil {
		return nil, fmt.Errorf("derive settings: %w", err)
	}
	return derived, nil
}

// Map returns a copy of the values keyed by name.
func (s *Settings) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for name := range s.values {
		out[name], _ = s.Get(name)
	}
	return out
}

func (s *Settings) clone() *Settings {
	c := newSettings()
	for name, value := range s.values {
		if list, ok := value.([]string); ok {
			value = slices.Clone(list)
		}
		c.values[name] = value
	}
	maps.Copy(c.sources, s.sources)
	return c
}

// setFrom writes value when source ranks at least as high as the current
// source of name. It reports whether the value was written.
func (s *Settings) setFrom(name string, value any, source ValueSource) bool {
	if current, ok := s.sources[name]; ok && source.Rank() < current.Rank() {
		return false
	}
	s.values[name] = value
	s.sources[name] = source
	return true
}

// sortedKeys orders names by registry position; unknown names sort last,
// alphabetically, so errors are reported deterministically.
func sortedKeys(values map[string]any) []string {
	keys := slices.Collect(maps.Keys(values))
	slices.SortFunc(keys, func(a, b string) int {
		ia, oka := registryIndex[a]
		ib, okb := registryIndex[b]
		switch {
		case oka && okb:
			return ia - ib
		case oka:
			return -1
		case okb:
			return 1
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	})
	return keys
}
