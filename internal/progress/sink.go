package progress

// Stage identifies one phase of an installation pipeline. Stages advance
// strictly forward; Error is terminal and reachable from any stage.
type Stage int

const (
	StageChecking Stage = iota
	StagePrerequisites
	StageDownload
	StageExtract
	StagePython
	StageConfigure
	StageComplete
	StageError
)

// String returns the user-facing stage label.
func (s Stage) String() string {
	switch s {
	case StageChecking:
		return "Checking"
	case StagePrerequisites:
		return "Installing prerequisites"
	case StageDownload:
		return "Downloading"
	case StageExtract:
		return "Extracting"
	case StagePython:
		return "Setting up Python environment"
	case StageConfigure:
		return "Configuring"
	case StageComplete:
		return "Complete"
	case StageError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further stage can follow s.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

// Level classifies discrete sink messages.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
	LevelSuccess
)

// Report is one aggregated progress update delivered to a sink. Percent is
// the overall position of the version's installation, already clamped and
// monotonic per stage.
type Report struct {
	Stage   Stage
	Version string
	Percent int
	Detail  string
}

// Sink receives aggregated progress and discrete messages. Implementations
// must tolerate calls from multiple goroutines across stages; within one
// stage the aggregator calls sequentially.
type Sink interface {
	Progress(Report)
	Message(level Level, version, text string)
}

// Discard is a Sink that drops everything.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Progress(Report)               {}
func (discardSink) Message(Level, string, string) {}
