package settings

import (
	"time"
)

// Kind is the value type of a setting.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindStringList
	KindDuration
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindStringList:
		return "[]string"
	case KindDuration:
		return "duration"
	default:
		return "string"
	}
}

// Field describes one recognised setting.
type Field struct {
	Name    string
	Kind    Kind
	Default any
	// Env is the environment variable read for the field, if any.
	Env string
	// Choices restricts string values when non-empty.
	Choices []string
	// Secret fields are masked when rendered.
	Secret bool
}

// Setting names.
const (
	Mode          = "mode"
	Offline       = "offline"
	SaveCode      = "save_code"
	BaseURL       = "base_url"
	APIKey        = "api_key"
	Entity        = "entity"
	Project       = "project"
	ConfigPaths   = "config_paths"
	CI            = "ci"
	Silent        = "silent"
	StartMethod   = "start_method"
	LogLevel      = "log_level"
	LogFormat     = "log_format"
	RootDir       = "root_dir"
	ViewerTimeout = "viewer_timeout"
)

// Modes accepted by the mode setting.
const (
	ModeOnline   = "online"
	ModeOffline  = "offline"
	ModeDryrun   = "dryrun"
	ModeDisabled = "disabled"
)

// DefaultBaseURL is the tracking server used when nothing else is configured.
const DefaultBaseURL = "https://api.runtrack.dev"

// registry lists every setting in rendering order.
var registry = []Field{
	{Name: Mode, Kind: KindString, Default: ModeOnline, Env: "RUNTRACK_MODE",
		Choices: []string{ModeOnline, ModeOffline, ModeDryrun, ModeDisabled}},
	{Name: Offline, Kind: KindBool, Default: false},
	{Name: SaveCode, Kind: KindBool, Default: false, Env: "RUNTRACK_SAVE_CODE"},
	{Name: BaseURL, Kind: KindString, Default: DefaultBaseURL, Env: "RUNTRACK_BASE_URL"},
	{Name: APIKey, Kind: KindString, Default: "", Env: "RUNTRACK_API_KEY", Secret: true},
	{Name: Entity, Kind: KindString, Default: "", Env: "RUNTRACK_ENTITY"},
	{Name: Project, Kind: KindString, Default: "", Env: "RUNTRACK_PROJECT"},
	{Name: ConfigPaths, Kind: KindStringList, Default: []string(nil), Env: "RUNTRACK_CONFIG_PATHS"},
	{Name: CI, Kind: KindBool, Default: false},
	{Name: Silent, Kind: KindBool, Default: false, Env: "RUNTRACK_SILENT"},
	{Name: StartMethod, Kind: KindString, Default: "spawn", Env: "RUNTRACK_START_METHOD"},
	{Name: LogLevel, Kind: KindString, Default: "info", Env: "RUNTRACK_LOG_LEVEL",
		Choices: []string{"debug", "info", "warn", "error", "critical"}},
	{Name: LogFormat, Kind: KindString, Default: "text", Env: "RUNTRACK_LOG_FORMAT",
		Choices: []string{"text", "json"}},
	{Name: RootDir, Kind: KindString, Env: "RUNTRACK_DIR"},
	{Name: ViewerTimeout, Kind: KindDuration, Default: 5 * time.Second, Env: "RUNTRACK_VIEWER_TIMEOUT"},
}

var registryIndex = func() map[string]int {
	index := make(map[string]int, len(registry))
	for i, field := range registry {
		index[field.Name] = i
	}
	return index
}()

// Fields returns a copy of the registry in rendering order.
func Fields() []Field {
	return append([]Field(nil), registry...)
}

// Lookup returns the field registered under name.
func Lookup(name string) (Field, bool) {
	i, ok := registryIndex[name]
	if !ok {
		return Field{}, false
	}
	return registry[i], true
}

// ciVariables signal a CI runner when set to anything other than a false value.
var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE", "CIRCLECI", "JENKINS_URL"}

// FlagBinding maps a remote feature flag onto a setting.
type FlagBinding struct {
	Flag    string
	Setting string
}

var flagBindings = []FlagBinding{
	{Flag: "code_saving_enabled", Setting: SaveCode},
}
