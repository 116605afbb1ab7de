package settings

import (
	"errors"
	"fmt"
)

// ErrFrozen matches every FrozenSettingsError.
var ErrFrozen = errors.New("settings are frozen")

// FrozenSettingsError is returned when a frozen snapshot is mutated.
type FrozenSettingsError struct {
	Field string
}

func (e *FrozenSettingsError) Error() string {
	return fmt.Sprintf("cannot set %q: settings are frozen", e.Field)
}

func (e *FrozenSettingsError) Is(target error) bool {
	return target == ErrFrozen
}

// UnknownSettingError is returned for names missing from the registry.
type UnknownSettingError struct {
	Name string
}

func (e *UnknownSettingError) Error() string {
	return fmt.Sprintf("unknown setting %q", e.Name)
}

// InvalidValueError is returned when a value does not fit its field.
type InvalidValueError struct {
	Name   string
	Value  any
	Kind   Kind
	Source ValueSource
	Err    error
}

func (e *InvalidValueError) Error() string {
	msg := fmt.Sprintf("invalid %s value %#v for %q", e.Kind, e.Value, e.Name)
	if e.Source != SourceUnset {
		msg += " from " + string(e.Source)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidValueError) Unwrap() error {
	return e.Err
}
