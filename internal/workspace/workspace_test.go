package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLayout(t *testing.T) {
	root := t.TempDir()
	ws, err := New(root)
	if err != nil {
		t.Fatal(err)
	}

	if ws.Root() != root {
		t.Errorf("Root() = %q, want %q", ws.Root(), root)
	}
	if got, want := ws.SessionsDir(), filepath.Join(root, "sessions"); got != want {
		t.Errorf("SessionsDir() = %q, want %q", got, want)
	}
	if got, want := ws.AliasesPath(), filepath.Join(root, AliasesFilename); got != want {
		t.Errorf("AliasesPath() = %q, want %q", got, want)
	}
	if got, want := ws.CompactionLogPath(), filepath.Join(root, "sessions", "compaction-log.txt"); got != want {
		t.Errorf("CompactionLogPath() = %q, want %q", got, want)
	}
}

func TestNew_RelativeRootBecomesAbsolute(t *testing.T) {
	ws, err := New(".")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(ws.Root()) {
		t.Errorf("Root() = %q, want absolute", ws.Root())
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("dir not created: %v", err)
	}

	// Idempotent.
	if err := EnsureDir(dir); err != nil {
		t.Errorf("second EnsureDir: %v", err)
	}
}

func TestTimestamp_UTC(t *testing.T) {
	loc := time.FixedZone("plus5", 5*3600)
	at := time.Date(2026, 1, 17, 10, 30, 0, 0, loc)
	if got, want := Timestamp(at), "2026-01-17T05:30:00Z"; got != want {
		t.Errorf("Timestamp = %q, want %q", got, want)
	}
}

func TestDateAndTimeStrings(t *testing.T) {
	at := time.Date(2026, 1, 17, 9, 5, 3, 0, time.Local)
	if got := DateString(at); got != "2026-01-17" {
		t.Errorf("DateString = %q", got)
	}
	if got := TimeString(at); got != "09:05" {
		t.Errorf("TimeString = %q", got)
	}
	if got := DateTimeString(at); got != "2026-01-17 09:05:03" {
		t.Errorf("DateTimeString = %q", got)
	}
}
