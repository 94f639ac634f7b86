// Package corelog is a thin rank-tagged wrapper over the standard
// library's log.Logger. Every line a rank emits carries its own rank
// number so interleaved stdout/stderr from a multi-process cluster run
// stays attributable to the process that wrote it.
package corelog

import (
	"io"
	"log"
	"os"
)

// Logger prefixes every line with the owning rank.
type Logger struct {
	rank int
	std  *log.Logger
}

// New builds a Logger for rank, writing to w with the standard
// date/time flags the teacher's cmd binaries already rely on.
func New(rank int, w io.Writer) *Logger {
	return &Logger{
		rank: rank,
		std:  log.New(w, "", log.LstdFlags|log.Lmicroseconds),
	}
}

// Default builds a Logger for rank writing to os.Stderr, the
// destination every cmd entry point uses unless redirected.
func Default(rank int) *Logger {
	return New(rank, os.Stderr)
}

func (l *Logger) Printf(format string, args ...any) {
	l.std.Printf("[rank %d] "+format, append([]any{l.rank}, args...)...)
}

func (l *Logger) Println(args ...any) {
	l.std.Println(append([]any{"[rank", l.rank, "]"}, args...)...)
}

// Fatalf logs then calls os.Exit(1), matching log.Fatalf's contract.
func (l *Logger) Fatalf(format string, args ...any) {
	l.Printf(format, args...)
	os.Exit(1)
}
