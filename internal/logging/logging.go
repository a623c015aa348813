// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// DefaultLevel keeps playback output clean unless asked otherwise.
const DefaultLevel = zerolog.WarnLevel

// Options select the level and sink.
type Options struct {
	Level   string // zerolog level name; empty uses DefaultLevel
	Verbose bool   // shorthand for debug when Level is empty
	File    string // append logs here instead of Console
	Console io.Writer
}

// New returns a console-formatted logger and a closer for the sink.
func New(opts Options) (zerolog.Logger, func() error, error) {
	level := DefaultLevel
	switch {
	case opts.Level != "":
		l, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), noop, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = l
	case opts.Verbose:
		level = zerolog.DebugLevel
	}

	var sink io.Writer = opts.Console
	if sink == nil {
		sink = os.Stderr
	}
	closer := noop
	noColor := !isTTY(sink)
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), noop, fmt.Errorf("open log file: %w", err)
		}
		sink, closer, noColor = f, f.Close, true
	}

	cw := zerolog.ConsoleWriter{Out: sink, TimeFormat: time.TimeOnly, NoColor: noColor}
	logger := zerolog.New(cw).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func noop() error { return nil }
