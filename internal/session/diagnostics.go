package session

import (
	"bytes"
	"fmt"
	"runtime"
	"runtime/debug"

	"runtrack/internal/logging"
)

// Diagnostic codes.
const (
	DiagOffMainGoroutine     = "off_main_goroutine"
	DiagNoBuildInfo          = "no_build_info"
	DiagViewerUnavailable    = "viewer_unavailable"
	DiagConfigFileUnreadable = "config_file_unreadable"
	DiagSetupIgnoredSettings = "setup_ignored_settings"
)

// Diagnostic is an advisory event raised while the session was set up. None
// of them stop setup.
type Diagnostic struct {
	Code     string
	Severity logging.Level
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Code, d.Message)
}

var (
	isMainGoroutine = onMainGoroutine
	readBuildInfo   = debug.ReadBuildInfo
)

func onMainGoroutine() bool {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	return bytes.HasPrefix(buf, []byte("goroutine 1 ["))
}

// sanityChecks inspects the runtime the session is set up in.
func sanityChecks() []Diagnostic {
	var diags []Diagnostic
	if !isMainGoroutine() {
		diags = append(diags, Diagnostic{
			Code:     DiagOffMainGoroutine,
			Severity: logging.LevelWarn,
			Message:  "setup called off the main goroutine; set up runtrack before the host starts its workers",
		})
	}
	if _, ok := readBuildInfo(); !ok {
		diags = append(diags, Diagnostic{
			Code:     DiagNoBuildInfo,
			Severity: logging.LevelWarn,
			Message:  "binary carries no module build information; version and source reporting are limited",
		})
	}
	return diags
}
