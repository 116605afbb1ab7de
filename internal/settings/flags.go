package settings

import (
	"runtrack/internal/logging"
)

// FlagObserver is told about every recognised remote flag and whether it
// changed the snapshot.
type FlagObserver func(flag string, applied bool)

func applyFlags(s *Settings, flags map[string]any, logger logging.Leveled, observe FlagObserver) {
	for _, binding := range flagBindings {
		raw, ok := flags[binding.Flag]
		if !ok {
			continue
		}
		field, _ := Lookup(binding.Setting)
		value, err := checkValue(field, raw)
		if err != nil {
			logger.Warn("ignoring remote flag %s=%#v: expected %s for %s", binding.Flag, raw, field.Kind, field.Name)
			notify(observe, binding.Flag, false)
			continue
		}
		applied := s.setFrom(field.Name, value, SourceFlag)
		if !applied {
			logger.Debug("remote flag %s not applied: %s set by %s", binding.Flag, field.Name, s.Source(field.Name))
		}
		notify(observe, binding.Flag, applied)
	}
}

func notify(observe FlagObserver, flag string, applied bool) {
	if observe != nil {
		observe(flag, applied)
	}
}
