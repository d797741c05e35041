package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// setupLogger builds the process logger. Output goes to file when one is
// configured, otherwise to fallback. The returned close func must be called
// on exit.
func setupLogger(level, file string, debug, noColor bool, fallback io.Writer) (*log.Logger, func() error, error) {
	var (
		out     = fallback
		closeFn = func() error { return nil }
	)
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closeFn = f, f.Close
	}

	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	if debug {
		lvl = log.DebugLevel
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	if noColor || file != "" {
		logger.SetColorProfile(termenv.Ascii)
	}
	return logger, closeFn, nil
}
