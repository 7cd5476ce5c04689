package cli

import (
	"fmt"
	"io"

	"github.com/eim-labs/eim/internal/progress"
)

// terminalSink renders aggregated progress as an in-place bar on stderr
// and routes discrete messages through the shared logger.
type terminalSink struct {
	out         io.Writer
	lastPercent int
	lastStage   progress.Stage
}

func newTerminalSink(out io.Writer) *terminalSink {
	return &terminalSink{out: out, lastPercent: -1, lastStage: -1}
}

func (s *terminalSink) Progress(rep progress.Report) {
	if rep.Percent == s.lastPercent && rep.Stage == s.lastStage {
		return
	}
	s.lastPercent = rep.Percent
	s.lastStage = rep.Stage

	detail := rep.Detail
	if detail != "" {
		detail = " (" + detail + ")"
	}
	fmt.Fprintf(s.out, "\r\033[K[%s] %s: %3d%%%s", rep.Version, rep.Stage, rep.Percent, detail)
	if rep.Stage.Terminal() {
		fmt.Fprintln(s.out)
	}
}

func (s *terminalSink) Message(level progress.Level, version, text string) {
	// Break out of the progress line before logging.
	if s.lastPercent >= 0 {
		fmt.Fprintln(s.out)
		s.lastPercent = -1
	}
	switch level {
	case progress.LevelWarning:
		logger.Warn(text, "version", version)
	case progress.LevelError:
		logger.Error(text, "version", version)
	case progress.LevelSuccess, progress.LevelInfo:
		logger.Info(text, "version", version)
	}
}
