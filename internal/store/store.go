// Package store provides CRUD operations over session files in a
// single sessions directory. The store never creates a session's
// initial content; it only offers read/write/append/delete primitives
// over paths derived from the naming scheme.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/naming"
	"github.com/starford/raido/internal/parser"
)

// DefaultLimit is applied when a list request carries no limit.
const DefaultLimit = 50

// Store operates on session files under a fixed directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a store over the given sessions directory. The directory
// may not exist yet; list operations treat a missing directory as empty.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Dir returns the sessions directory.
func (s *Store) Dir() string { return s.dir }

// FilePath returns the full path for a session filename.
func (s *Store) FilePath(filename string) string {
	return filepath.Join(s.dir, filename)
}

// ListOptions filter and paginate a session listing.
type ListOptions struct {
	Date   string // exact date match (YYYY-MM-DD)
	Search string // substring match against the short id
	Offset int
	Limit  int
}

// ListResult is a page of sessions plus pagination bookkeeping.
type ListResult struct {
	Sessions []models.Session `json:"sessions"`
	Total    int              `json:"total"`
	Offset   int              `json:"offset"`
	Limit    int              `json:"limit"`
	HasMore  bool             `json:"hasMore"`
}

// All enumerates every valid session file, sorted by modification time
// descending with ties kept in directory order. A missing sessions
// directory yields an empty slice.
func (s *Store) All() []models.Session {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("store: list failed", slog.String("dir", s.dir), slog.String("error", err.Error()))
		}
		return nil
	}

	var sessions []models.Session
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name, ok := naming.Parse(entry.Name())
		if !ok {
			continue
		}
		sess, ok := s.buildSession(entry.Name(), name)
		if !ok {
			continue
		}
		sessions = append(sessions, sess)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].ModifiedTime.After(sessions[j].ModifiedTime)
	})
	return sessions
}

// List applies the date and short-id filters to the full enumeration
// and returns the requested page.
func (s *Store) List(opts ListOptions) ListResult {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	result := ListResult{Sessions: []models.Session{}, Offset: opts.Offset, Limit: limit}

	var sessions []models.Session
	for _, sess := range s.All() {
		if opts.Date != "" && sess.Date != opts.Date {
			continue
		}
		if opts.Search != "" && !strings.Contains(sess.ShortID, opts.Search) {
			continue
		}
		sessions = append(sessions, sess)
	}

	result.Total = len(sessions)
	result.HasMore = opts.Offset+limit < len(sessions)

	start := opts.Offset
	if start > len(sessions) {
		start = len(sessions)
	}
	end := start + limit
	if end > len(sessions) {
		end = len(sessions)
	}
	result.Sessions = sessions[start:end]
	return result
}

// GetByID resolves an id to a session. The id may be a short-id prefix,
// an exact filename (extension optional), or a legacy date id. Entries
// are scanned in lexicographic filename order so the first match is
// deterministic across filesystems. includeContent attaches the full
// body, extracted metadata, and derived stats.
func (s *Store) GetByID(id string, includeContent bool) (*models.Session, bool) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("store: get failed", slog.String("dir", s.dir), slog.String("error", err.Error()))
		}
		return nil, false
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name, ok := naming.Parse(entry.Name())
		if !ok {
			continue
		}
		if !naming.MatchesID(name, entry.Name(), id) {
			continue
		}

		sess, ok := s.buildSession(entry.Name(), name)
		if !ok {
			return nil, false
		}
		if includeContent {
			content, _ := s.Read(sess.SessionPath)
			md := parser.Extract(content)
			stats := s.Stats(sess.SessionPath)
			sess.Content = content
			sess.Metadata = &md
			sess.Stats = &stats
		}
		return &sess, true
	}
	return nil, false
}

// Read returns the content of the file at path. A missing file is an
// expected case and yields ("", false) without logging; other I/O
// failures are logged and also yield ("", false).
func (s *Store) Read(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("store: read failed", slog.String("path", path), slog.String("error", err.Error()))
		}
		return "", false
	}
	return string(data), true
}

// Write replaces the file at path with content, creating parent
// directories as needed. Failures are logged, never raised.
func (s *Store) Write(path, content string) bool {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Error("store: mkdir failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		s.logger.Error("store: write failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	return true
}

// Append adds content to the end of the file at path, creating it (and
// parent directories) if absent.
func (s *Store) Append(path, content string) bool {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Error("store: mkdir failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.Error("store: open for append failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		s.logger.Error("store: append failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	return true
}

// Delete unlinks the file at path. Deleting a missing file returns
// false without logging.
func (s *Store) Delete(path string) bool {
	if !s.Exists(path) {
		return false
	}
	if err := os.Remove(path); err != nil {
		s.logger.Error("store: delete failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	return true
}

// Exists reports whether a regular file exists at path.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Stats derives checklist and content statistics for the session at
// path. A missing file yields zero stats.
func (s *Store) Stats(path string) models.SessionStats {
	content, found := s.Read(path)
	if !found {
		return models.SessionStats{}
	}
	md := parser.Extract(content)
	lineCount := 0
	if content != "" {
		lineCount = strings.Count(content, "\n") + 1
	}
	return models.SessionStats{
		TotalItems:      len(md.Completed) + len(md.InProgress),
		CompletedItems:  len(md.Completed),
		InProgressItems: len(md.InProgress),
		LineCount:       lineCount,
		HasNotes:        md.Notes != "",
		HasContext:      md.Context != "",
	}
}

// Title returns the session's extracted title, or a default when the
// body has none.
func (s *Store) Title(path string) string {
	content, _ := s.Read(path)
	if md := parser.Extract(content); md.Title != "" {
		return md.Title
	}
	return "Untitled Session"
}

// HumanSize renders the session file size in human-readable form.
func (s *Store) HumanSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "0 B"
	}
	size := info.Size()
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}

func (s *Store) buildSession(filename string, name naming.Name) (models.Session, bool) {
	path := s.FilePath(filename)
	info, err := os.Stat(path)
	if err != nil {
		s.logger.Warn("store: stat failed", slog.String("path", path), slog.String("error", err.Error()))
		return models.Session{}, false
	}
	return models.Session{
		Filename:     filename,
		ShortID:      name.ShortID,
		Date:         name.Date,
		SessionPath:  path,
		Size:         info.Size(),
		HasContent:   info.Size() > 0,
		ModifiedTime: info.ModTime(),
	}, true
}
