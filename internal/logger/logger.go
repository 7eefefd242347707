// Package logger provides sommelier's structured logger, kept on
// charmbracelet/log (the teacher's logging library) with the
// notify/forward UI hooks removed — sommelier runs headless, with no
// TUI to notify.
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"go.chromium.org/sommelier/internal/config"
)

// Log is the process-wide logger. Replaced wholesale by Configure once
// the command-line config (trace/timing/stats file targets) is known;
// code that runs before Configure still logs sensibly to stderr.
var Log = log.New(os.Stderr)

func init() {
	Log.SetLevel(levelFromEnv())
}

func levelFromEnv() log.Level {
	switch strings.ToUpper(os.Getenv("SOMMELIER_LOG_LEVEL")) {
	case "DEBUG":
		return log.DebugLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	case "FATAL":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Configure applies the resolved trace/timing/stats-log configuration
// (spec.md §6.3's observability-outputs flag group) to Log. A
// stats-log path redirects Log's output there (sommelier has no other
// use for a plain text log sink). trace-filename and timing-filename are
// not read here, and no other package reads them either.
func Configure(cfg config.TraceConfig) {
	if cfg.StatsLog == "" {
		return
	}
	f, err := os.OpenFile(cfg.StatsLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		Log.Warn("could not open stats-log, logging to stderr", "path", cfg.StatsLog, "err", err)
		return
	}
	Log = log.NewWithOptions(f, log.Options{ReportTimestamp: true, TimeFormat: "15:04:05"})
	Log.SetLevel(levelFromEnv())
	Log.Info(fmt.Sprintf("sommelier: logging to %s", cfg.StatsLog))
}
