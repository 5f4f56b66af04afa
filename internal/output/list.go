package output

import (
	"encoding/json"
	"sort"
	"strconv"
)

// AllowlistEntry represents a single allow-list line for display.
type AllowlistEntry struct {
	Fingerprint string `json:"fingerprint"`
	Algorithm   string `json:"algorithm"`
	Line        int    `json:"line"`
}

// AllowlistList implements Formatter for allow-list listings.
type AllowlistList struct {
	Path    string
	Entries []AllowlistEntry
	sorted  bool
}

// sort orders entries by file line number.
func (l *AllowlistList) sort() {
	if l.sorted {
		return
	}
	sort.Slice(l.Entries, func(i, j int) bool {
		return l.Entries[i].Line < l.Entries[j].Line
	})
	l.sorted = true
}

// FormatText returns aligned table output.
// Header: LINE, ALGO, FINGERPRINT. Fingerprints in entries should already
// be truncated for text display.
func (l *AllowlistList) FormatText() string {
	if len(l.Entries) == 0 {
		return ""
	}
	l.sort()

	tw := NewTableWriter()
	tw.Header("LINE", "ALGO", "FINGERPRINT")
	for _, e := range l.Entries {
		tw.Row(strconv.Itoa(e.Line), e.Algorithm, e.Fingerprint)
	}
	return tw.String()
}

// FormatJSON returns a JSON object with the allow-list path and entries.
// Fingerprints are expected to be full (not truncated) for JSON output.
func (l *AllowlistList) FormatJSON() ([]byte, error) {
	l.sort()
	entries := l.Entries
	if entries == nil {
		entries = []AllowlistEntry{}
	}
	return json.MarshalIndent(struct {
		Path    string           `json:"path"`
		Entries []AllowlistEntry `json:"entries"`
	}{l.Path, entries}, "", "  ")
}
