package parser

import "testing"

const sampleSession = "# My Title\n\n" +
	"**Date:** 2026-01-17\n" +
	"**Started:** 09:15\n" +
	"**Last Updated:** 14:30\n\n" +
	"### Completed\n" +
	"- [x] Wire the store\n" +
	"- [x] Add pagination\n\n" +
	"### In Progress\n" +
	"- [ ] Alias cleanup\n\n" +
	"### Notes for Next Session\n" +
	"Pick up the rename rollback first.\n\n" +
	"### Context to Load\n" +
	"```\nsrc/store.go\nsrc/alias.go\n```\n"

func TestExtract_FullSession(t *testing.T) {
	md := Extract(sampleSession)

	if md.Title != "My Title" {
		t.Errorf("title = %q, want %q", md.Title, "My Title")
	}
	if md.Date != "2026-01-17" {
		t.Errorf("date = %q", md.Date)
	}
	if md.Started != "09:15" {
		t.Errorf("started = %q", md.Started)
	}
	if md.LastUpdated != "14:30" {
		t.Errorf("lastUpdated = %q", md.LastUpdated)
	}
	if len(md.Completed) != 2 {
		t.Fatalf("completed = %v, want 2 items", md.Completed)
	}
	if md.Completed[0] != "Wire the store" || md.Completed[1] != "Add pagination" {
		t.Errorf("completed = %v", md.Completed)
	}
	if len(md.InProgress) != 1 || md.InProgress[0] != "Alias cleanup" {
		t.Errorf("inProgress = %v", md.InProgress)
	}
	if md.Notes != "Pick up the rename rollback first." {
		t.Errorf("notes = %q", md.Notes)
	}
	if md.Context != "src/store.go\nsrc/alias.go" {
		t.Errorf("context = %q", md.Context)
	}
}

func TestExtract_EmptyBody(t *testing.T) {
	md := Extract("")
	if md.Title != "" || md.Date != "" || md.Notes != "" || md.Context != "" {
		t.Errorf("expected zero metadata, got %+v", md)
	}
	if md.Completed == nil || md.InProgress == nil {
		t.Error("item slices should be empty, not nil")
	}
	if len(md.Completed) != 0 || len(md.InProgress) != 0 {
		t.Errorf("expected no items, got %+v", md)
	}
}

func TestExtract_MissingSections(t *testing.T) {
	md := Extract("# Only a Title\n\nSome prose without any labeled sections.\n")
	if md.Title != "Only a Title" {
		t.Errorf("title = %q", md.Title)
	}
	if len(md.Completed) != 0 || len(md.InProgress) != 0 {
		t.Errorf("expected no items, got %+v", md)
	}
	if md.Notes != "" || md.Context != "" {
		t.Errorf("expected empty notes/context, got %+v", md)
	}
}

func TestExtract_TitleIgnoresSubheadings(t *testing.T) {
	md := Extract("## Not the title\n# Real Title\n")
	if md.Title != "Real Title" {
		t.Errorf("title = %q, want %q", md.Title, "Real Title")
	}
}

func TestExtract_SectionEndsAtNextHeading(t *testing.T) {
	body := "### Completed\n- [x] one\n### In Progress\n- [ ] two\n"
	md := Extract(body)
	if len(md.Completed) != 1 || md.Completed[0] != "one" {
		t.Errorf("completed = %v", md.Completed)
	}
	if len(md.InProgress) != 1 || md.InProgress[0] != "two" {
		t.Errorf("inProgress = %v", md.InProgress)
	}
}

func TestExtract_UncheckedNotCountedAsCompleted(t *testing.T) {
	body := "### Completed\n- [x] done\n- [ ] not done\n"
	md := Extract(body)
	if len(md.Completed) != 1 || md.Completed[0] != "done" {
		t.Errorf("completed = %v", md.Completed)
	}
}

func TestExtract_ContextRequiresFence(t *testing.T) {
	md := Extract("### Context to Load\nplain text, no fence\n")
	if md.Context != "" {
		t.Errorf("context = %q, want empty", md.Context)
	}
}

func TestExtract_DateNarrowPattern(t *testing.T) {
	md := Extract("**Date:** January 17th\n**Date:** 2026-01-17\n")
	if md.Date != "2026-01-17" {
		t.Errorf("date = %q, want first digits-and-dashes value", md.Date)
	}
}
