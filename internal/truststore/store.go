// Package truststore maintains the operator allow-list of accepted server
// certificate fingerprints consulted ahead of standard chain validation.
package truststore

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Masterminds/semver/v3"
)

// DefaultFileName is the allow-list file looked up beside the binary.
const DefaultFileName = "allowlist.txt"

// formatPragmaPrefix marks the optional format version pragma carried in
// a comment line, e.g. "# format: 1.0".
const formatPragmaPrefix = "# format:"

// formatConstraint matches allow-list format versions this build
// understands. Newer majors trigger a warning but never fail the load.
var formatConstraint = mustConstraint("< 2.0.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Set is an immutable collection of allow-listed fingerprints. A Set is
// never mutated after the Store publishes it; callers may hold a snapshot
// across a handshake without locking.
type Set map[Fingerprint]struct{}

// Contains reports whether fp is allow-listed.
func (s Set) Contains(fp Fingerprint) bool {
	_, ok := s[fp]
	return ok
}

// Len returns the number of allow-listed fingerprints.
func (s Set) Len() int { return len(s) }

// Entry describes one allow-list line for listings.
type Entry struct {
	Fingerprint Fingerprint
	Line        int
}

// Store serves the process-wide fingerprint allow-list. One instance is
// constructed at startup and passed to every consumer; the cached set is
// replaced wholesale by Reload and obtained lock-free through Snapshot
// after the first load.
type Store struct {
	path string
	log  *slog.Logger

	mu  sync.Mutex // guards first load and reload
	set atomic.Pointer[Set]
}

// New creates a Store reading the allow-list at path. Load problems are
// reported through log; a nil log discards them.
func New(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{path: path, log: log}
}

// Path returns the allow-list location this store reads from.
func (s *Store) Path() string { return s.path }

// Snapshot returns the current allow-list, loading it on first use.
// The fast path is a lock-free pointer read; the lock is taken only for
// the one-time initial load, with the nil check repeated under it.
func (s *Store) Snapshot() Set {
	if set := s.set.Load(); set != nil {
		return *set
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if set := s.set.Load(); set != nil {
		return *set
	}
	set := s.load()
	s.set.Store(&set)
	return set
}

// Reload re-reads the allow-list and swaps the cached set atomically.
// Safe to call concurrently with Snapshot and with in-flight validations;
// a validation in progress keeps the snapshot it already obtained.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.load()
	s.set.Store(&set)
}

// load parses the allow-list. It never fails: a missing or unreadable
// file degrades to an empty set and system-only validation.
func (s *Store) load() Set {
	set := make(Set)

	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("allowlist unreadable, falling back to system trust only",
				"path", s.path, "error", err)
		}
		return set
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			s.checkFormatPragma(line)
			continue
		}
		set[Normalize(line)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		s.log.Warn("allowlist read interrupted, using entries loaded so far",
			"path", s.path, "error", err)
	}

	return set
}

// checkFormatPragma warns when the file declares a format version newer
// than this build understands. The load proceeds either way.
func (s *Store) checkFormatPragma(comment string) {
	rest, ok := strings.CutPrefix(comment, formatPragmaPrefix)
	if !ok {
		return
	}
	v, err := semver.NewVersion(strings.TrimSpace(rest))
	if err != nil {
		return
	}
	if !formatConstraint.Check(v) {
		s.log.Warn("allowlist declares an unsupported format version",
			"path", s.path, "version", v.String())
	}
}

// Entries re-reads the allow-list for listing purposes, preserving line
// numbers and duplicates. A missing file yields no entries.
func (s *Store) Entries() []Entry {
	f, err := os.Open(s.path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, Entry{Fingerprint: Normalize(line), Line: n})
	}
	return entries
}
