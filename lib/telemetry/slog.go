package telemetry

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
)

// InitSlog installs the default logger, writing colored output to stderr
// and, when `logFile` is non-nil, plain text to the file as well.
func InitSlog(verbose bool, logFile ...io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	SetLogLevel(level)

	console := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
	})
	if len(logFile) == 0 || logFile[0] == nil {
		slog.SetDefault(slog.New(console))
		return
	}
	file := slog.NewTextHandler(logFile[0], &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(slogmulti.Fanout(console, file)))
}

var logLevel = new(slog.LevelVar)

// SetLogLevel changes the level of the logger installed by InitSlog.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// ParseLevel parses "debug", "info", "warning"/"warn" or "error", it
// defaults to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	switch s {
	case "warning":
		s = "warn"
	case "":
		return slog.LevelInfo
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
