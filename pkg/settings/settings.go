// Package settings holds build metadata and the per-run settings of the
// kvgrid command.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "kvgrid"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Mode is how a run presents the grid.
type Mode int

const (
	// ModeAuto opens the interactive grid on a terminal and prints a
	// snapshot otherwise.
	ModeAuto Mode = iota
	ModeInteractive
	ModeSnapshot
)

func (m Mode) String() string {
	switch m {
	case ModeInteractive:
		return "interactive"
	case ModeSnapshot:
		return "snapshot"
	default:
		return "auto"
	}
}

// Source describes where the items of a run come from.
type Source struct {
	Path      string
	FromStdin bool
}

// Run holds the settings of a single execution.
type Run struct {
	MinLogLevel int8
	LogFile     string
	Source      Source
	Mode        Mode
	NoColor     bool
	ExitOnError bool
}

// NewCliParams returns the defaults of a command line run.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Mode:        ModeAuto,
		NoColor:     false,
		ExitOnError: true,
	}
}

// Interactive resolves ModeAuto against whether stdout is a terminal.
func (r *Run) Interactive(isTTY bool) bool {
	switch r.Mode {
	case ModeInteractive:
		return true
	case ModeSnapshot:
		return false
	default:
		return isTTY
	}
}
