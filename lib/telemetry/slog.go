package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the process-wide text handler. Verbose enables debug
// narration of every fetch, otherwise progress is reported at info.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
