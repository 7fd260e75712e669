// Package alias maintains the named-alias index: a single JSON document
// mapping short mnemonic names to session file paths. Every mutation is
// load → mutate in memory → atomic persist; the on-disk document is
// never patched in place, so readers can never observe a half-written
// index.
package alias

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/workspace"
)

// Version is the current alias document format tag.
const Version = "1.0"

var aliasNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Names that collide with alias CLI verbs and can never be aliases.
var reservedNames = map[string]struct{}{
	"list":   {},
	"help":   {},
	"remove": {},
	"delete": {},
	"create": {},
	"set":    {},
}

// Entry is one alias binding inside the document.
type Entry struct {
	SessionPath string `json:"sessionPath"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	Title       string `json:"title,omitempty"`
}

// Metadata is derived bookkeeping, recomputed on every save and never
// trusted as authoritative input.
type Metadata struct {
	TotalCount  int    `json:"totalCount"`
	LastUpdated string `json:"lastUpdated"`
}

// Document is the whole alias index as persisted on disk.
type Document struct {
	Version  string           `json:"version"`
	Aliases  map[string]Entry `json:"aliases"`
	Metadata Metadata         `json:"metadata"`
}

// Index manages the alias document at a fixed path.
type Index struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// New creates an index over the document at path. The file is lazily
// created on first save.
func New(path string, logger *slog.Logger) *Index {
	return &Index{path: path, logger: logger, now: time.Now}
}

// Path returns the document location.
func (ix *Index) Path() string { return ix.path }

// validateName enforces the alias character class and reserved set.
func validateName(name string) error {
	return validation.Validate(name,
		validation.Required.Error("alias name cannot be empty"),
		validation.Match(aliasNameRe).Error("alias name must contain only letters, numbers, dashes, and underscores"),
		validation.By(func(v interface{}) error {
			if _, ok := reservedNames[strings.ToLower(v.(string))]; ok {
				return fmt.Errorf("'%s' is a reserved alias name", v)
			}
			return nil
		}),
	)
}

// defaultDocument returns a fresh empty document.
func (ix *Index) defaultDocument() *Document {
	return &Document{
		Version: Version,
		Aliases: map[string]Entry{},
		Metadata: Metadata{
			TotalCount:  0,
			LastUpdated: workspace.Timestamp(ix.now()),
		},
	}
}

// load reads the document, tolerating absence and corruption: a
// missing, unreadable, or malformed file yields a fresh default, and a
// document without a version tag is stamped with the current one.
func (ix *Index) load() *Document {
	data, err := os.ReadFile(ix.path)
	if err != nil {
		return ix.defaultDocument()
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		ix.logger.Warn("alias: malformed document, resetting",
			slog.String("path", ix.path), slog.String("error", err.Error()))
		return ix.defaultDocument()
	}
	if doc.Aliases == nil {
		ix.logger.Warn("alias: invalid document structure, resetting", slog.String("path", ix.path))
		return ix.defaultDocument()
	}
	if doc.Version == "" {
		doc.Version = Version
	}
	if doc.Metadata.LastUpdated == "" {
		doc.Metadata = Metadata{
			TotalCount:  len(doc.Aliases),
			LastUpdated: workspace.Timestamp(ix.now()),
		}
	}
	return &doc
}

// save persists the document with the backup-then-atomic-rename
// protocol: recompute metadata, copy the live file to .bak, write the
// new content to .tmp, rename .tmp over the live path, then drop the
// .bak. On any failure the .bak (when present) is copied back over the
// live path and both siblings are removed, so a prior good version
// always survives a failed write and no transient files are left
// behind either way.
func (ix *Index) save(doc *Document) bool {
	doc.Metadata = Metadata{
		TotalCount:  len(doc.Aliases),
		LastUpdated: workspace.Timestamp(ix.now()),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		ix.logger.Error("alias: marshal failed", slog.String("error", err.Error()))
		return false
	}
	data = append(data, '\n')

	tmpPath := ix.path + ".tmp"
	bakPath := ix.path + ".bak"

	err = func() error {
		if err := os.MkdirAll(filepath.Dir(ix.path), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		if fileExists(ix.path) {
			if err := copyFile(ix.path, bakPath); err != nil {
				return fmt.Errorf("backup: %w", err)
			}
		}
		if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
			return fmt.Errorf("write temp: %w", err)
		}
		// Windows cannot rename over an existing file.
		if fileExists(ix.path) {
			if err := os.Remove(ix.path); err != nil {
				return fmt.Errorf("remove live: %w", err)
			}
		}
		if err := os.Rename(tmpPath, ix.path); err != nil {
			return fmt.Errorf("rename: %w", err)
		}
		return nil
	}()

	if err != nil {
		ix.logger.Error("alias: save failed", slog.String("path", ix.path), slog.String("error", err.Error()))
		if fileExists(bakPath) {
			if restoreErr := copyFile(bakPath, ix.path); restoreErr != nil {
				ix.logger.Error("alias: backup restore failed", slog.String("error", restoreErr.Error()))
			} else {
				ix.logger.Info("alias: restored from backup", slog.String("path", ix.path))
			}
			_ = os.Remove(bakPath)
		}
		_ = os.Remove(tmpPath)
		return false
	}

	_ = os.Remove(bakPath)
	return true
}

// Resolved is a successful alias lookup.
type Resolved struct {
	Alias       string `json:"alias"`
	SessionPath string `json:"sessionPath"`
	CreatedAt   string `json:"createdAt"`
	Title       string `json:"title,omitempty"`
}

// Resolve looks up an alias. Names failing the character-class check
// are rejected without touching disk.
func (ix *Index) Resolve(name string) (*Resolved, bool) {
	if !aliasNameRe.MatchString(name) {
		return nil, false
	}
	doc := ix.load()
	entry, ok := doc.Aliases[name]
	if !ok {
		return nil, false
	}
	return &Resolved{
		Alias:       name,
		SessionPath: entry.SessionPath,
		CreatedAt:   entry.CreatedAt,
		Title:       entry.Title,
	}, true
}

// ResolvePath resolves an alias to its session path, passing the input
// through unchanged when it is not a known alias (it may already be a
// path or session id).
func (ix *Index) ResolvePath(aliasOrID string) string {
	if resolved, ok := ix.Resolve(aliasOrID); ok {
		return resolved.SessionPath
	}
	return aliasOrID
}

// SetResult reports the outcome of Set.
type SetResult struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	IsNew       bool   `json:"isNew,omitempty"`
	Alias       string `json:"alias,omitempty"`
	SessionPath string `json:"sessionPath,omitempty"`
	Title       string `json:"title,omitempty"`
}

// Set creates or updates an alias binding. Updates preserve the
// original createdAt and always refresh updatedAt.
func (ix *Index) Set(name, sessionPath, title string) SetResult {
	if err := validateName(name); err != nil {
		return SetResult{Success: false, Error: err.Error()}
	}

	doc := ix.load()
	existing, ok := doc.Aliases[name]
	createdAt := workspace.Timestamp(ix.now())
	if ok {
		createdAt = existing.CreatedAt
	}
	doc.Aliases[name] = Entry{
		SessionPath: sessionPath,
		CreatedAt:   createdAt,
		UpdatedAt:   workspace.Timestamp(ix.now()),
		Title:       title,
	}

	if !ix.save(doc) {
		return SetResult{Success: false, Error: "failed to save alias"}
	}
	return SetResult{
		Success:     true,
		IsNew:       !ok,
		Alias:       name,
		SessionPath: sessionPath,
		Title:       title,
	}
}

// Listed is one row of a List result.
type Listed struct {
	Name        string `json:"name"`
	SessionPath string `json:"sessionPath"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	Title       string `json:"title,omitempty"`
}

// List returns all aliases ordered by updatedAt (falling back to
// createdAt) descending, optionally filtered by a case-insensitive
// substring over name and title and truncated to limit.
func (ix *Index) List(search string, limit int) []Listed {
	doc := ix.load()

	out := make([]Listed, 0, len(doc.Aliases))
	for name, entry := range doc.Aliases {
		out = append(out, Listed{
			Name:        name,
			SessionPath: entry.SessionPath,
			CreatedAt:   entry.CreatedAt,
			UpdatedAt:   entry.UpdatedAt,
			Title:       entry.Title,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return sortTime(out[i]).After(sortTime(out[j]))
	})

	if search != "" {
		needle := strings.ToLower(search)
		filtered := out[:0]
		for _, a := range out {
			if strings.Contains(strings.ToLower(a.Name), needle) ||
				strings.Contains(strings.ToLower(a.Title), needle) {
				filtered = append(filtered, a)
			}
		}
		out = filtered
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortTime(a Listed) time.Time {
	ts := a.UpdatedAt
	if ts == "" {
		ts = a.CreatedAt
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DeleteResult reports the outcome of Delete.
type DeleteResult struct {
	Success            bool   `json:"success"`
	Error              string `json:"error,omitempty"`
	Alias              string `json:"alias,omitempty"`
	DeletedSessionPath string `json:"deletedSessionPath,omitempty"`
}

// Delete removes an alias binding.
func (ix *Index) Delete(name string) DeleteResult {
	doc := ix.load()
	entry, ok := doc.Aliases[name]
	if !ok {
		return DeleteResult{Success: false, Error: fmt.Sprintf("alias '%s' not found", name)}
	}
	delete(doc.Aliases, name)

	if !ix.save(doc) {
		return DeleteResult{Success: false, Error: "failed to delete alias"}
	}
	return DeleteResult{Success: true, Alias: name, DeletedSessionPath: entry.SessionPath}
}

// RenameResult reports the outcome of Rename.
type RenameResult struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	OldAlias    string `json:"oldAlias,omitempty"`
	NewAlias    string `json:"newAlias,omitempty"`
	SessionPath string `json:"sessionPath,omitempty"`
}

// Rename moves a binding to a new name. It fails when the old name is
// absent, the new name is taken, or the new name fails the character
// class. On persist failure the in-memory mapping is restored under
// the old name; no re-read is needed since the failed persist did not
// commit.
func (ix *Index) Rename(oldName, newName string) RenameResult {
	doc := ix.load()

	entry, ok := doc.Aliases[oldName]
	if !ok {
		return RenameResult{Success: false, Error: fmt.Sprintf("alias '%s' not found", oldName)}
	}
	if _, taken := doc.Aliases[newName]; taken {
		return RenameResult{Success: false, Error: fmt.Sprintf("alias '%s' already exists", newName)}
	}
	if !aliasNameRe.MatchString(newName) {
		return RenameResult{Success: false, Error: "new alias name must contain only letters, numbers, dashes, and underscores"}
	}

	delete(doc.Aliases, oldName)
	entry.UpdatedAt = workspace.Timestamp(ix.now())
	doc.Aliases[newName] = entry

	if !ix.save(doc) {
		delete(doc.Aliases, newName)
		doc.Aliases[oldName] = entry
		return RenameResult{Success: false, Error: "failed to rename alias"}
	}
	return RenameResult{Success: true, OldAlias: oldName, NewAlias: newName, SessionPath: entry.SessionPath}
}

// RetitleResult reports the outcome of Retitle.
type RetitleResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Alias   string `json:"alias,omitempty"`
	Title   string `json:"title,omitempty"`
}

// Retitle updates the stored title of an alias.
func (ix *Index) Retitle(name, title string) RetitleResult {
	doc := ix.load()
	entry, ok := doc.Aliases[name]
	if !ok {
		return RetitleResult{Success: false, Error: fmt.Sprintf("alias '%s' not found", name)}
	}
	entry.Title = title
	entry.UpdatedAt = workspace.Timestamp(ix.now())
	doc.Aliases[name] = entry

	if !ix.save(doc) {
		return RetitleResult{Success: false, Error: "failed to update alias title"}
	}
	return RetitleResult{Success: true, Alias: name, Title: title}
}

// Ref is an alias reference returned by AliasesFor.
type Ref struct {
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	Title     string `json:"title,omitempty"`
}

// AliasesFor returns every alias bound to the given session path.
// Aliasing is many-to-one: one session may carry several names.
func (ix *Index) AliasesFor(sessionPath string) []Ref {
	doc := ix.load()
	out := []Ref{}
	for name, entry := range doc.Aliases {
		if entry.SessionPath == sessionPath {
			out = append(out, Ref{Name: name, CreatedAt: entry.CreatedAt, Title: entry.Title})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RemovedAlias identifies one binding dropped by Cleanup.
type RemovedAlias struct {
	Name        string `json:"name"`
	SessionPath string `json:"sessionPath"`
}

// CleanupResult reports the outcome of Cleanup.
type CleanupResult struct {
	TotalChecked   int            `json:"totalChecked"`
	Removed        int            `json:"removed"`
	RemovedAliases []RemovedAlias `json:"removedAliases"`
}

// Cleanup drops every alias whose session path fails the supplied
// existence predicate and persists once if anything was removed.
func (ix *Index) Cleanup(exists func(sessionPath string) bool) CleanupResult {
	doc := ix.load()
	total := len(doc.Aliases)

	removed := []RemovedAlias{}
	for name, entry := range doc.Aliases {
		if !exists(entry.SessionPath) {
			removed = append(removed, RemovedAlias{Name: name, SessionPath: entry.SessionPath})
			delete(doc.Aliases, name)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].Name < removed[j].Name })

	if len(removed) > 0 {
		ix.save(doc)
	}
	return CleanupResult{
		TotalChecked:   total,
		Removed:        len(removed),
		RemovedAliases: removed,
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
