// Package audit provides the append-only diagnostic sink the trust core
// writes to. The sink is strictly one-way and best-effort: every failure
// is swallowed, and a write never becomes a source of control flow for
// the caller.
package audit

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// DefaultFileName is the audit log file created beside the binary when no
// explicit path is configured.
const DefaultFileName = "mailvet.log"

// fileSink appends to a local log file, opening it lazily on the first
// write. An open failure disables the sink for the rest of the process;
// nothing in this core retries automatically.
type fileSink struct {
	mu     sync.Mutex
	path   string
	f      *os.File
	failed bool
}

// Write implements io.Writer. It always reports success so the slog
// handler above it never observes an error.
func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil && !s.failed {
		f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			s.failed = true
		} else {
			s.f = f
		}
	}
	if s.f != nil {
		_, _ = s.f.Write(p)
	}
	return len(p), nil
}

// NewLogger returns a structured logger appending one timestamped text
// line per record to the file at path.
func NewLogger(path string) *slog.Logger {
	return slog.New(slog.NewTextHandler(&fileSink{path: path}, nil))
}

// Discard returns a logger that drops every record. Used by tests and by
// components constructed without an audit destination.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
