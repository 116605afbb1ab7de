package settings

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var errWrongType = errors.New("wrong type")

// checkValue validates a typed value against field and returns a private copy.
func checkValue(field Field, value any) (any, error) {
	var out any
	switch field.Kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, errWrongType
		}
		out = s
	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, errWrongType
		}
		out = b
	case KindStringList:
		list, ok := value.([]string)
		if !ok {
			return nil, errWrongType
		}
		out = slices.Clone(list)
	case KindDuration:
		d, ok := value.(time.Duration)
		if !ok {
			return nil, errWrongType
		}
		if d < 0 {
			return nil, errors.New("negative duration")
		}
		out = d
	default:
		return nil, fmt.Errorf("unsupported kind %d", field.Kind)
	}

	if len(field.Choices) > 0 && !slices.Contains(field.Choices, out.(string)) {
		return nil, fmt.Errorf("must be one of %s", strings.Join(field.Choices, ", "))
	}
	return out, nil
}

// ParseValue converts a raw string, as found in the environment or on a
// command line, into the value type of the named setting.
func ParseValue(name, raw string) (any, error) {
	field, ok := Lookup(name)
	if !ok {
		return nil, &UnknownSettingError{Name: name}
	}
	value, err := parseRaw(field, raw)
	if err != nil {
		return nil, &InvalidValueError{Name: name, Value: raw, Kind: field.Kind, Err: err}
	}
	if value, err = checkValue(field, value); err != nil {
		return nil, &InvalidValueError{Name: name, Value: raw, Kind: field.Kind, Err: err}
	}
	return value, nil
}

func parseRaw(field Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch field.Kind {
	case KindBool:
		return cast.ToBoolE(raw)
	case KindDuration:
		return cast.ToDurationE(raw)
	case KindStringList:
		var list []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				list = append(list, part)
			}
		}
		return list, nil
	default:
		return raw, nil
	}
}

// ParseOverrides turns key=value pairs into typed overrides.
func ParseOverrides(pairs []string) (map[string]any, error) {
	overrides := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("override %q: expected key=value", pair)
		}
		value, err := ParseValue(strings.TrimSpace(name), raw)
		if err != nil {
			return nil, err
		}
		overrides[strings.TrimSpace(name)] = value
	}
	return overrides, nil
}
