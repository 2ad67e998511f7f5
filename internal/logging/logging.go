// Package logging sets up the process-wide slog logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	level  slog.Leveler
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.level.Level()
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// Mode selects where log records go.
type Mode int

const (
	// Server routes INFO/WARN to stdout and ERROR to stderr.
	Server Mode = iota
	// Command writes everything to stderr, as text on a terminal and as
	// JSON otherwise, leaving stdout for command output.
	Command
	// Quiet writes only to the log file, if any. The terminal dashboard
	// owns the screen.
	Quiet
)

// Options configures Setup.
type Options struct {
	Mode  Mode
	Level slog.Level
	// Path, if set, receives every record in addition to the console.
	Path string

	// Stdout and Stderr default to os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// Setup installs the default logger. The returned function closes the log
// file and is never nil.
func Setup(opts Options) (*slog.Logger, func(), error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	cleanup := func() {}

	var file io.Writer
	if opts.Path != "" {
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		file = f
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	tee := func(w io.Writer) io.Writer {
		if file == nil {
			return w
		}
		return io.MultiWriter(w, file)
	}

	var handler slog.Handler
	switch opts.Mode {
	case Server:
		handler = &levelRouter{
			level:  opts.Level,
			stdout: slog.NewTextHandler(tee(opts.Stdout), handlerOpts),
			stderr: slog.NewTextHandler(tee(opts.Stderr), handlerOpts),
		}
	case Command:
		if isTerminal(opts.Stderr) {
			handler = slog.NewTextHandler(tee(opts.Stderr), handlerOpts)
		} else {
			handler = slog.NewJSONHandler(tee(opts.Stderr), handlerOpts)
		}
	case Quiet:
		w := io.Discard
		if file != nil {
			w = file
		}
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown log mode %d", opts.Mode)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
