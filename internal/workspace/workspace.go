// Package workspace resolves the on-disk layout of a Raido root
// directory. The root is always threaded in explicitly so components
// can run against a temporary directory in tests.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AliasesFilename is the alias index document, a sibling of the
// sessions directory under the root.
const AliasesFilename = "session-aliases.json"

// Workspace knows where sessions and the alias index live under a
// single root directory.
type Workspace struct {
	root string
}

// New creates a workspace rooted at the given directory.
func New(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root: %w", err)
	}
	return &Workspace{root: abs}, nil
}

// DefaultRoot returns the conventional root directory, ~/.claude.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("workspace: home dir: %w", err)
	}
	return filepath.Join(home, ".claude"), nil
}

// Root returns the absolute root directory.
func (w *Workspace) Root() string { return w.root }

// SessionsDir returns the directory holding session files.
func (w *Workspace) SessionsDir() string {
	return filepath.Join(w.root, "sessions")
}

// AliasesPath returns the path of the alias index document.
func (w *Workspace) AliasesPath() string {
	return filepath.Join(w.root, AliasesFilename)
}

// CompactionLogPath returns the append-only compaction event log.
func (w *Workspace) CompactionLogPath() string {
	return filepath.Join(w.SessionsDir(), "compaction-log.txt")
}

// EnsureDir creates dir (and parents) if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("workspace: mkdir %s: %w", dir, err)
	}
	return nil
}

// Timestamp renders t as an ISO-8601 UTC string, the format used for
// alias createdAt/updatedAt fields.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// DateString renders t as YYYY-MM-DD in local time, matching the date
// segment of session filenames.
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}

// TimeString renders t as HH:MM in local time.
func TimeString(t time.Time) string {
	return t.Format("15:04")
}

// DateTimeString renders t as YYYY-MM-DD HH:MM:SS in local time.
func DateTimeString(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
