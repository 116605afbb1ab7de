package settings

// ValueSource describes where a setting value originated from.
type ValueSource string

const (
	SourceUnset    ValueSource = ""
	SourceDefault  ValueSource = "default"
	SourceEnv      ValueSource = "environment"
	SourceFlag     ValueSource = "remote_flag"
	SourceOverride ValueSource = "override"
)

// Rank orders sources by precedence. A value may only be replaced by a value
// from a source of equal or higher rank.
func (s ValueSource) Rank() int {
	switch s {
	case SourceDefault:
		return 0
	case SourceEnv:
		return 1
	case SourceFlag:
		return 2
	case SourceOverride:
		return 3
	default:
		return -1
	}
}
