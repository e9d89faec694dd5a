package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/akastas/screenshot-processor/pkg/integration/ticktick"
	"github.com/akastas/screenshot-processor/pkg/vault"
)

func TestParseClientRecord(t *testing.T) {
	content := `---
client: Maria
handle: "@maria_ph"
platform: Instagram
shoot_type: portrait
status: need-to-reply
created: 2025-03-01
last_updated: 2025-03-03
tags: [booking, portrait]
---

# Maria — Portrait Session
`
	rec, err := ParseClientRecord(content)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Client != "Maria" || rec.Platform != "Instagram" || rec.Status != "need-to-reply" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Updated != "2025-03-03" {
		t.Errorf("last_updated = %q", rec.Updated)
	}
}

func TestParseClientRecordNoFrontMatter(t *testing.T) {
	if _, err := ParseClientRecord("# Just a heading\n"); err == nil {
		t.Error("expected error for missing front matter")
	}
	if _, err := ParseClientRecord("---\nunclosed: yes\n"); err == nil {
		t.Error("expected error for unterminated front matter")
	}
}

func TestSplitSections(t *testing.T) {
	content := `---
date: 2025-03-01
---

## Tasks
- [ ] 🔺 Call the venue 📅 2025-03-01

## Events

## Diary
- Long walk by the river
`
	sections := SplitSections(content)
	if got := sections["Tasks"]; got != "- [ ] 🔺 Call the venue 📅 2025-03-01" {
		t.Errorf("Tasks = %q", got)
	}
	if got := sections["Events"]; got != "" {
		t.Errorf("Events = %q", got)
	}
	if got := sections["Diary"]; got != "- Long walk by the river" {
		t.Errorf("Diary = %q", got)
	}
}

func TestBucketTasks(t *testing.T) {
	today := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tasks := []ticktick.TaskInfo{
		{Title: "overdue", DueDate: "2025-02-27T00:00:00+0000"},
		{Title: "today", DueDate: "2025-03-01T00:00:00+0000"},
		{Title: "upcoming", DueDate: "2025-03-05T00:00:00+0000"},
		{Title: "urgent no due", Priority: 5},
		{Title: "done", DueDate: "2025-02-27T00:00:00+0000", Status: 2},
	}

	summary := BucketTasks(tasks, today)
	if len(summary.Overdue) != 1 || summary.Overdue[0].Title != "overdue" {
		t.Errorf("overdue = %+v", summary.Overdue)
	}
	if len(summary.DueToday) != 1 || summary.DueToday[0].Title != "today" {
		t.Errorf("due today = %+v", summary.DueToday)
	}
	if len(summary.Upcoming) != 1 || summary.Upcoming[0].Title != "upcoming" {
		t.Errorf("upcoming = %+v", summary.Upcoming)
	}
	if len(summary.HighPriority) != 1 || summary.HighPriority[0].Title != "urgent no due" {
		t.Errorf("high priority = %+v", summary.HighPriority)
	}
}

func TestSnapshotRender(t *testing.T) {
	snap := &Snapshot{
		Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Clients: []ClientRecord{
			{Client: "Maria", Platform: "Instagram", Status: "need-to-reply", Updated: "2025-03-01"},
		},
		Tasks: &TaskSummary{
			Overdue:  []ticktick.TaskInfo{{Title: "Pay invoice", DueDate: "2025-02-27T00:00:00+0000"}},
			Upcoming: []ticktick.TaskInfo{{Title: "Order prints", DueDate: "2025-03-05T00:00:00+0000"}},
		},
		DailySections: map[string]string{"Diary": "- Coffee with Anna"},
		Recent: []RecentFile{
			{Name: "Ideas.md", Label: "ideas", Snippet: "- Golden hour series at the pier"},
		},
	}

	got := snap.Render()
	for _, want := range []string{
		"Date: Saturday, 1 March 2025",
		"Maria (Instagram): 🔴 need-to-reply",
		"Overdue tasks:",
		"- Pay invoice (due 2025-02-27)",
		"Today's diary section:\n- Coffee with Anna",
		"Upcoming tasks:\n- Order prints (due 2025-03-05)",
		"Recent vault content:\n[ideas] Ideas.md:\n…- Golden hour series at the pier",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

// fakeStore is an in-memory vault store with just enough for scanner tests.
type fakeStore struct {
	folders map[string]map[string]string // parentID -> name -> folderID
	files   map[string]map[string]string // folderID -> name -> fileID
	content map[string]string            // fileID -> content
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		folders: map[string]map[string]string{},
		files:   map[string]map[string]string{},
		content: map[string]string{},
	}
}

func (s *fakeStore) addFolderPath(path string) string {
	parent := "root"
	for _, part := range strings.Split(path, "/") {
		if s.folders[parent] == nil {
			s.folders[parent] = map[string]string{}
		}
		id, ok := s.folders[parent][part]
		if !ok {
			id = "dir-" + parent + "-" + part
			s.folders[parent][part] = id
		}
		parent = id
	}
	return parent
}

func (s *fakeStore) addFile(folderID, name, content string) {
	if s.files[folderID] == nil {
		s.files[folderID] = map[string]string{}
	}
	id := "file-" + folderID + "-" + name
	s.files[folderID][name] = id
	s.content[id] = content
}

func (s *fakeStore) FindFolder(_ context.Context, name, parentID string) (string, error) {
	return s.folders[parentID][name], nil
}

func (s *fakeStore) FindFileByName(_ context.Context, name, folderID string) (*vault.FileInfo, error) {
	id, ok := s.files[folderID][name]
	if !ok {
		return nil, nil
	}
	return &vault.FileInfo{ID: id, Name: name}, nil
}

func (s *fakeStore) ReadFile(_ context.Context, fileID string) (string, error) {
	content, ok := s.content[fileID]
	if !ok {
		return "", vault.ErrFileNotFound
	}
	return content, nil
}

func (s *fakeStore) ListMarkdownFiles(_ context.Context, folderID string) ([]vault.FileInfo, error) {
	var out []vault.FileInfo
	for name, id := range s.files[folderID] {
		out = append(out, vault.FileInfo{ID: id, Name: name})
	}
	return out, nil
}

func (s *fakeStore) OverwriteFile(context.Context, string, string) error {
	return errors.New("not supported")
}

func (s *fakeStore) CreateFile(context.Context, string, string, string) (string, error) {
	return "", errors.New("not supported")
}

func (s *fakeStore) CreateFolder(context.Context, string, string) (string, error) {
	return "", errors.New("not supported")
}

func TestScanRecentFiles(t *testing.T) {
	store := newFakeStore()
	ideasDir := store.addFolderPath("3-Resources/Ideas")
	store.addFile(ideasDir, "Ideas.md", "# Ideas\n- Golden hour series at the pier\n")
	quotesDir := store.addFolderPath("3-Resources/Quotes")
	store.addFile(quotesDir, "Quotes.md", strings.Repeat("x", 600)+"\n> Light is everything\n")

	scanner := NewScanner(store, vault.NewResolver(store, "root"), nil, "")
	snap := scanner.Scan(context.Background(), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	if len(snap.Recent) != 2 {
		t.Fatalf("recent = %+v", snap.Recent)
	}
	ideas := snap.Recent[0]
	if ideas.Label != "ideas" || ideas.Name != "Ideas.md" {
		t.Errorf("first entry = %+v", ideas)
	}
	if !strings.Contains(ideas.Snippet, "Golden hour series") {
		t.Errorf("snippet = %q", ideas.Snippet)
	}
	quotes := snap.Recent[1]
	if quotes.Label != "quotes" {
		t.Errorf("second entry = %+v", quotes)
	}
	if len(quotes.Snippet) > 500 || !strings.Contains(quotes.Snippet, "Light is everything") {
		t.Errorf("tail snippet = %q (%d bytes)", quotes.Snippet, len(quotes.Snippet))
	}
}

func TestTailSnippet(t *testing.T) {
	if got := TailSnippet("short", 500); got != "short" {
		t.Errorf("short content changed: %q", got)
	}
	// The cut lands inside the two-byte "é" and must move past it.
	got := TailSnippet("aéz", 2)
	if got != "z" {
		t.Errorf("mid-rune cut = %q, want %q", got, "z")
	}
	if got := TailSnippet("aéz", 3); got != "éz" {
		t.Errorf("boundary cut = %q, want %q", got, "éz")
	}
}
