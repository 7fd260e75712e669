package alias

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(filepath.Join(t.TempDir(), "session-aliases.json"), logger)
}

func TestSetAndResolve(t *testing.T) {
	ix := testIndex(t)

	res := ix.Set("auth-work", "/sessions/2026-01-17-a1b2c3d4-session.md", "Auth refactor")
	if !res.Success || !res.IsNew {
		t.Fatalf("Set = %+v", res)
	}

	got, ok := ix.Resolve("auth-work")
	if !ok {
		t.Fatal("Resolve failed")
	}
	if got.SessionPath != "/sessions/2026-01-17-a1b2c3d4-session.md" {
		t.Errorf("sessionPath = %q", got.SessionPath)
	}
	if got.Title != "Auth refactor" {
		t.Errorf("title = %q", got.Title)
	}
	if got.CreatedAt == "" {
		t.Error("createdAt should be set")
	}
}

func TestSet_UpdatePreservesCreatedAt(t *testing.T) {
	ix := testIndex(t)
	clock := time.Date(2026, 1, 17, 9, 0, 0, 0, time.UTC)
	ix.now = func() time.Time { return clock }

	_ = ix.Set("work", "/p1", "")
	first, _ := ix.Resolve("work")

	clock = clock.Add(time.Hour)
	res := ix.Set("work", "/p2", "")
	if !res.Success || res.IsNew {
		t.Fatalf("update should not be new: %+v", res)
	}

	doc := ix.load()
	entry := doc.Aliases["work"]
	if entry.CreatedAt != first.CreatedAt {
		t.Errorf("createdAt changed: %q -> %q", first.CreatedAt, entry.CreatedAt)
	}
	if entry.UpdatedAt == first.CreatedAt {
		t.Error("updatedAt should have been refreshed")
	}
	if entry.SessionPath != "/p2" {
		t.Errorf("sessionPath = %q", entry.SessionPath)
	}
}

func TestSet_RejectsInvalidAndReservedNames(t *testing.T) {
	ix := testIndex(t)
	_ = ix.Set("keeper", "/p", "")
	before, err := os.ReadFile(ix.Path())
	if err != nil {
		t.Fatal(err)
	}

	cases := []string{"", "bad name!", "semi;colon", "list", "HELP", "Delete"}
	for _, name := range cases {
		res := ix.Set(name, "/p", "")
		if res.Success {
			t.Errorf("Set(%q) should fail", name)
		}
		if res.Error == "" {
			t.Errorf("Set(%q) should carry an error message", name)
		}
	}

	after, err := os.ReadFile(ix.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("rejected sets must leave the document unchanged")
	}
}

func TestResolve_InvalidNameSkipsDisk(t *testing.T) {
	ix := testIndex(t)
	if _, ok := ix.Resolve("not valid!"); ok {
		t.Error("invalid name should not resolve")
	}
	if _, err := os.Stat(ix.Path()); !os.IsNotExist(err) {
		t.Error("resolve of invalid name should not create the document")
	}
}

func TestResolvePath_PassThrough(t *testing.T) {
	ix := testIndex(t)
	_ = ix.Set("known", "/sessions/s.md", "")

	if got := ix.ResolvePath("known"); got != "/sessions/s.md" {
		t.Errorf("got %q", got)
	}
	if got := ix.ResolvePath("unknown-id"); got != "unknown-id" {
		t.Errorf("got %q", got)
	}
}

func TestList_OrderSearchLimit(t *testing.T) {
	ix := testIndex(t)
	clock := time.Date(2026, 1, 17, 9, 0, 0, 0, time.UTC)
	ix.now = func() time.Time { return clock }

	_ = ix.Set("oldest", "/p1", "first piece of work")
	clock = clock.Add(time.Minute)
	_ = ix.Set("middle", "/p2", "second piece")
	clock = clock.Add(time.Minute)
	_ = ix.Set("newest", "/p3", "third piece")

	all := ix.List("", 0)
	if len(all) != 3 {
		t.Fatalf("len = %d", len(all))
	}
	if all[0].Name != "newest" || all[2].Name != "oldest" {
		t.Errorf("order = %s, %s, %s", all[0].Name, all[1].Name, all[2].Name)
	}

	// Case-insensitive search over name and title.
	byName := ix.List("MID", 0)
	if len(byName) != 1 || byName[0].Name != "middle" {
		t.Errorf("byName = %+v", byName)
	}
	byTitle := ix.List("third", 0)
	if len(byTitle) != 1 || byTitle[0].Name != "newest" {
		t.Errorf("byTitle = %+v", byTitle)
	}

	limited := ix.List("", 2)
	if len(limited) != 2 || limited[0].Name != "newest" {
		t.Errorf("limited = %+v", limited)
	}
}

func TestDelete(t *testing.T) {
	ix := testIndex(t)
	_ = ix.Set("gone", "/sessions/g.md", "")

	res := ix.Delete("gone")
	if !res.Success || res.DeletedSessionPath != "/sessions/g.md" {
		t.Fatalf("Delete = %+v", res)
	}
	if _, ok := ix.Resolve("gone"); ok {
		t.Error("alias should be gone")
	}

	res = ix.Delete("gone")
	if res.Success {
		t.Error("deleting a missing alias should fail")
	}
}

func TestRename(t *testing.T) {
	ix := testIndex(t)
	_ = ix.Set("old-name", "/p", "t")
	_ = ix.Set("taken", "/q", "")

	if res := ix.Rename("missing", "x"); res.Success {
		t.Error("rename of missing alias should fail")
	}
	if res := ix.Rename("old-name", "taken"); res.Success {
		t.Error("rename onto an existing alias should fail")
	}
	if res := ix.Rename("old-name", "bad name!"); res.Success {
		t.Error("rename to an invalid name should fail")
	}

	res := ix.Rename("old-name", "new-name")
	if !res.Success || res.SessionPath != "/p" {
		t.Fatalf("Rename = %+v", res)
	}
	if _, ok := ix.Resolve("old-name"); ok {
		t.Error("old name should be gone")
	}
	got, ok := ix.Resolve("new-name")
	if !ok || got.SessionPath != "/p" || got.Title != "t" {
		t.Errorf("new-name = %+v, ok = %v", got, ok)
	}
}

func TestRetitle(t *testing.T) {
	ix := testIndex(t)
	_ = ix.Set("work", "/p", "old title")

	res := ix.Retitle("work", "new title")
	if !res.Success || res.Title != "new title" {
		t.Fatalf("Retitle = %+v", res)
	}
	got, _ := ix.Resolve("work")
	if got.Title != "new title" {
		t.Errorf("title = %q", got.Title)
	}

	if res := ix.Retitle("missing", "t"); res.Success {
		t.Error("retitle of missing alias should fail")
	}
}

func TestAliasesFor(t *testing.T) {
	ix := testIndex(t)
	_ = ix.Set("a", "/shared.md", "")
	_ = ix.Set("b", "/shared.md", "")
	_ = ix.Set("c", "/other.md", "")

	refs := ix.AliasesFor("/shared.md")
	if len(refs) != 2 {
		t.Fatalf("len = %d", len(refs))
	}
	if refs[0].Name != "a" || refs[1].Name != "b" {
		t.Errorf("refs = %+v", refs)
	}
}

func TestCleanup(t *testing.T) {
	ix := testIndex(t)
	_ = ix.Set("live", "/exists.md", "")
	_ = ix.Set("dead", "/missing.md", "")

	res := ix.Cleanup(func(p string) bool { return p == "/exists.md" })
	if res.TotalChecked != 2 || res.Removed != 1 {
		t.Fatalf("Cleanup = %+v", res)
	}
	if len(res.RemovedAliases) != 1 || res.RemovedAliases[0].Name != "dead" {
		t.Errorf("removedAliases = %+v", res.RemovedAliases)
	}
	if _, ok := ix.Resolve("live"); !ok {
		t.Error("live alias should survive cleanup")
	}
	if _, ok := ix.Resolve("dead"); ok {
		t.Error("dead alias should be removed")
	}
}

func TestCleanup_NothingToRemoveDoesNotPersist(t *testing.T) {
	ix := testIndex(t)
	_ = ix.Set("live", "/exists.md", "")
	before, _ := os.ReadFile(ix.Path())

	res := ix.Cleanup(func(string) bool { return true })
	if res.Removed != 0 {
		t.Fatalf("Cleanup = %+v", res)
	}
	after, _ := os.ReadFile(ix.Path())
	if string(before) != string(after) {
		t.Error("a no-op cleanup must not rewrite the document")
	}
}

func TestLoad_CorruptDocumentResets(t *testing.T) {
	ix := testIndex(t)
	if err := os.MkdirAll(filepath.Dir(ix.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ix.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := ix.Resolve("anything"); ok {
		t.Error("corrupt document should behave as empty")
	}
	res := ix.Set("fresh", "/p", "")
	if !res.Success {
		t.Fatalf("Set after corruption = %+v", res)
	}

	doc := ix.load()
	if doc.Version != Version {
		t.Errorf("version = %q", doc.Version)
	}
	if len(doc.Aliases) != 1 {
		t.Errorf("aliases = %+v", doc.Aliases)
	}
}

func TestLoad_StampsMissingVersion(t *testing.T) {
	ix := testIndex(t)
	raw := `{"aliases": {"a": {"sessionPath": "/p", "createdAt": "2026-01-17T09:00:00Z", "updatedAt": "2026-01-17T09:00:00Z"}}}`
	if err := os.WriteFile(ix.Path(), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := ix.load()
	if doc.Version != Version {
		t.Errorf("version = %q, want stamped %q", doc.Version, Version)
	}
	if doc.Metadata.TotalCount != 1 {
		t.Errorf("metadata = %+v, want recomputed", doc.Metadata)
	}
}

func TestSave_MetadataRecomputed(t *testing.T) {
	ix := testIndex(t)
	_ = ix.Set("a", "/p1", "")
	_ = ix.Set("b", "/p2", "")

	data, err := os.ReadFile(ix.Path())
	if err != nil {
		t.Fatal(err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Metadata.TotalCount != 2 {
		t.Errorf("totalCount = %d, want 2", doc.Metadata.TotalCount)
	}
	if doc.Metadata.LastUpdated == "" {
		t.Error("lastUpdated should be set")
	}
}

func TestSave_NoTransientFilesAfterSuccess(t *testing.T) {
	ix := testIndex(t)
	_ = ix.Set("a", "/p", "")
	_ = ix.Set("b", "/q", "")

	if fileExists(ix.Path() + ".tmp") {
		t.Error(".tmp left behind after success")
	}
	if fileExists(ix.Path() + ".bak") {
		t.Error(".bak left behind after success")
	}
}

func TestSave_FailureRestoresPriorDocument(t *testing.T) {
	ix := testIndex(t)
	_ = ix.Set("stable", "/p", "")
	before, err := os.ReadFile(ix.Path())
	if err != nil {
		t.Fatal(err)
	}

	// Occupy the .tmp path with a directory so the temp write fails
	// after the backup copy has already succeeded.
	if err := os.Mkdir(ix.Path()+".tmp", 0o755); err != nil {
		t.Fatal(err)
	}

	res := ix.Set("doomed", "/q", "")
	if res.Success {
		t.Fatal("Set should fail when the persist step cannot write")
	}

	after, err := os.ReadFile(ix.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("live document must be byte-identical to the pre-call state")
	}
	if fileExists(ix.Path() + ".tmp") {
		t.Error("dangling .tmp should be removed")
	}
	if fileExists(ix.Path() + ".bak") {
		t.Error("dangling .bak should be removed")
	}
	if _, ok := ix.Resolve("doomed"); ok {
		t.Error("failed set must not be visible")
	}
}
