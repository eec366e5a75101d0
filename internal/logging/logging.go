// Package logging builds the zerolog logger. The TUI owns the terminal, so
// output normally goes to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const permission = 0o664

// Builder configures a logger.
type Builder struct {
	path  string
	w     io.Writer
	level string
}

func New() *Builder { return &Builder{level: "info"} }

// ToPath appends to the file at path.
func (b *Builder) ToPath(path string) *Builder {
	b.path = path
	return b
}

// ToWriter writes to w when no path is set.
func (b *Builder) ToWriter(w io.Writer) *Builder {
	b.w = w
	return b
}

func (b *Builder) Level(level string) *Builder {
	b.level = level
	return b
}

// Logger is a built logger plus the file behind it, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Make opens the output and returns a timestamped logger. With neither a
// path nor a writer the logger discards everything.
func (b *Builder) Make() (*Logger, error) {
	lvl, err := zerolog.ParseLevel(b.level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", b.level, err)
	}
	if b.level == "" {
		lvl = zerolog.InfoLevel
	}
	out := &Logger{}
	w := b.w
	if b.path != "" {
		if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir log dir: %w", err)
		}
		out.file, err = os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		w = zerolog.SyncWriter(out.file)
	}
	if w == nil {
		out.Logger = zerolog.Nop()
		return out, nil
	}
	out.Logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return out, nil
}
