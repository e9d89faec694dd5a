package inbox

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/akastas/screenshot-processor/pkg/ai"
	"github.com/akastas/screenshot-processor/pkg/config"
	"github.com/akastas/screenshot-processor/pkg/db"
	"github.com/akastas/screenshot-processor/pkg/integration/drive"
	"github.com/akastas/screenshot-processor/pkg/vault"
)

type fakeNode struct {
	id, name, parent, content string
}

// fakeSource is an in-memory InboxSource covering both the vault store and
// the inbox file queue.
type fakeSource struct {
	nextID  int
	rootID  string
	folders map[string]*fakeNode
	files   map[string]*fakeNode
	inbox   []drive.InboxFile
	blobs   map[string][]byte
	renames map[string]string
	moves   map[string]string
}

func newFakeSource() *fakeSource {
	s := &fakeSource{
		rootID:  "root",
		folders: map[string]*fakeNode{},
		files:   map[string]*fakeNode{},
		blobs:   map[string][]byte{},
		renames: map[string]string{},
		moves:   map[string]string{},
	}
	s.folders["root"] = &fakeNode{id: "root", name: ""}
	s.folders["inbox"] = &fakeNode{id: "inbox", name: "Inbox"}
	s.folders["archive"] = &fakeNode{id: "archive", name: "Archive"}
	return s
}

func (s *fakeSource) newID() string {
	s.nextID++
	return fmt.Sprintf("id-%d", s.nextID)
}

func (s *fakeSource) addFolderPath(path string) string {
	current := s.rootID
	for _, seg := range strings.Split(path, "/") {
		found := ""
		for _, f := range s.folders {
			if f.parent == current && f.name == seg {
				found = f.id
				break
			}
		}
		if found == "" {
			found = s.newID()
			s.folders[found] = &fakeNode{id: found, name: seg, parent: current}
		}
		current = found
	}
	return current
}

func (s *fakeSource) addInboxFile(id, name string, data []byte) {
	s.inbox = append(s.inbox, drive.InboxFile{ID: id, Name: name})
	s.blobs[id] = data
}

func (s *fakeSource) ListInboxFiles(_ context.Context, folderID string) ([]drive.InboxFile, error) {
	return s.inbox, nil
}

func (s *fakeSource) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	data, ok := s.blobs[fileID]
	if !ok {
		return nil, fmt.Errorf("no blob for %s", fileID)
	}
	return data, nil
}

func (s *fakeSource) RenameFile(_ context.Context, fileID, newName string) error {
	s.renames[fileID] = newName
	return nil
}

func (s *fakeSource) MoveFile(_ context.Context, fileID, fromFolderID, toFolderID string) error {
	s.moves[fileID] = toFolderID
	return nil
}

func (s *fakeSource) ListMarkdownFiles(_ context.Context, folderID string) ([]vault.FileInfo, error) {
	var result []vault.FileInfo
	for _, f := range s.files {
		if f.parent == folderID {
			result = append(result, vault.FileInfo{ID: f.id, Name: f.name})
		}
	}
	return result, nil
}

func (s *fakeSource) FindFileByName(_ context.Context, name, folderID string) (*vault.FileInfo, error) {
	for _, f := range s.files {
		if f.parent == folderID && f.name == name {
			return &vault.FileInfo{ID: f.id, Name: f.name}, nil
		}
	}
	return nil, nil
}

func (s *fakeSource) FindFolder(_ context.Context, name, parentID string) (string, error) {
	for _, f := range s.folders {
		if f.parent == parentID && f.name == name {
			return f.id, nil
		}
	}
	return "", nil
}

func (s *fakeSource) ReadFile(_ context.Context, fileID string) (string, error) {
	f, ok := s.files[fileID]
	if !ok {
		return "", fmt.Errorf("no file %s", fileID)
	}
	return f.content, nil
}

func (s *fakeSource) OverwriteFile(_ context.Context, fileID, content string) error {
	f, ok := s.files[fileID]
	if !ok {
		return fmt.Errorf("no file %s", fileID)
	}
	f.content = content
	return nil
}

func (s *fakeSource) CreateFile(_ context.Context, folderID, name, content string) (string, error) {
	id := s.newID()
	s.files[id] = &fakeNode{id: id, name: name, parent: folderID, content: content}
	return id, nil
}

func (s *fakeSource) CreateFolder(_ context.Context, parentID, name string) (string, error) {
	id := s.newID()
	s.folders[id] = &fakeNode{id: id, name: name, parent: parentID}
	return id, nil
}

func (s *fakeSource) fileInFolder(folderID, name string) *fakeNode {
	for _, f := range s.files {
		if f.parent == folderID && f.name == name {
			return f
		}
	}
	return nil
}

type fakeAnalyzer struct {
	imageResult  *ai.Analysis
	textResult   *ai.Analysis
	err          error
	imageCalls   int
	textCalls    int
	lastTextSize int
	lastText     string
}

func (f *fakeAnalyzer) AnalyzeImage(_ context.Context, data []byte, mimeType string) (*ai.Analysis, error) {
	f.imageCalls++
	return f.imageResult, f.err
}

func (f *fakeAnalyzer) AnalyzeText(_ context.Context, text string) (*ai.Analysis, error) {
	f.textCalls++
	f.lastTextSize = len(text)
	f.lastText = text
	return f.textResult, f.err
}

func (f *fakeAnalyzer) GenerateBookingReply(_ context.Context, _ string, _ []string, _ string) (string, error) {
	return "", nil
}

func (f *fakeAnalyzer) GenerateJSON(_ context.Context, _ string) (string, error) {
	return "", nil
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) SendMessage(text string) error {
	n.messages = append(n.messages, text)
	return nil
}

func newTestRepo(t *testing.T) *db.Repository {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.InitSchema(); err != nil {
		t.Fatal(err)
	}
	return db.NewRepository(database)
}

func newProcessor(t *testing.T, source *fakeSource, analyzer ai.Analyzer, opts Options) *Processor {
	t.Helper()
	source.addFolderPath(config.DailyNotesFolder)
	source.addFolderPath(config.ClientsPath)
	resolver := vault.NewResolver(source, source.rootID)
	bookings := vault.NewBookingManager(source, resolver, &fakeAnalyzer{})
	return NewProcessor(source, analyzer, resolver, bookings, "inbox", "archive", opts)
}

func taskAnalysis() *ai.Analysis {
	return &ai.Analysis{
		Summary:            "Venue booking reminder",
		Language:           "en",
		Transcript:         "call venue",
		FilenameSuggestion: "venue-reminder",
		Items: []ai.Item{{
			Type: ai.TypeTask, Content: "Call the venue", Priority: "high",
		}},
	}
}

func TestProcessBatchImageFile(t *testing.T) {
	source := newFakeSource()
	source.addInboxFile("f1", "IMG_2041.png", []byte("png-bytes"))
	analyzer := &fakeAnalyzer{imageResult: taskAnalysis()}
	repo := newTestRepo(t)
	notifier := &recordingNotifier{}

	p := newProcessor(t, source, analyzer, Options{
		Repo:     repo,
		Notifier: notifier,
		Summarize: func(processed, skipped, failed int, counts map[ai.ItemType]int, errs []error) string {
			return fmt.Sprintf("%d/%d/%d", processed, skipped, failed)
		},
	})

	result, err := p.ProcessBatch(context.Background(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if result.Processed != 1 || result.Failed != 0 || result.Skipped != 0 {
		t.Errorf("result = %+v", result)
	}
	if result.Counts[ai.TypeTask] != 1 {
		t.Errorf("counts = %v", result.Counts)
	}
	if analyzer.imageCalls != 1 || analyzer.textCalls != 0 {
		t.Errorf("analyzer calls: image %d, text %d", analyzer.imageCalls, analyzer.textCalls)
	}

	// Archive record written next to the archived file.
	if source.fileInFolder("archive", "venue-reminder-analysis.md") == nil {
		t.Error("analysis record not created in archive folder")
	}

	// Renamed with date prefix and extension, then moved to the archive.
	newName := source.renames["f1"]
	if !strings.HasSuffix(newName, "-venue-reminder.png") {
		t.Errorf("renamed to %q", newName)
	}
	if source.moves["f1"] != "archive" {
		t.Errorf("moved to %q", source.moves["f1"])
	}

	// Ledger entry recorded.
	rec, err := repo.GetProcessedFile("f1")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.ItemCount != 1 || rec.Summary != "Venue booking reminder" {
		t.Errorf("ledger entry = %+v", rec)
	}

	if len(notifier.messages) != 1 || notifier.messages[0] != "1/0/0" {
		t.Errorf("notifications = %v", notifier.messages)
	}
}

func TestProcessBatchTextFile(t *testing.T) {
	source := newFakeSource()
	source.addInboxFile("f1", "note.txt", []byte("remember to stretch"))
	analysis := &ai.Analysis{
		Summary:            "Note to self",
		Language:           "en",
		FilenameSuggestion: "stretch-note",
		DailySnippet:       "Remember to stretch",
		Items:              []ai.Item{},
	}
	analyzer := &fakeAnalyzer{textResult: analysis}

	p := newProcessor(t, source, analyzer, Options{})
	result, err := p.ProcessBatch(context.Background(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if result.Processed != 1 {
		t.Errorf("result = %+v", result)
	}
	if analyzer.textCalls != 1 || analyzer.imageCalls != 0 {
		t.Errorf("analyzer calls: image %d, text %d", analyzer.imageCalls, analyzer.textCalls)
	}

	// Snippet landed in the daily note under Notes.
	dailyID := source.addFolderPath(config.DailyNotesFolder)
	note := source.fileInFolder(dailyID, time.Now().Format("2006-01-02")+".md")
	if note == nil {
		t.Fatal("daily note not created")
	}
	if !strings.Contains(note.content, "## Notes\n- Remember to stretch") {
		t.Errorf("snippet missing:\n%s", note.content)
	}
}

func TestProcessBatchTruncatesLongText(t *testing.T) {
	source := newFakeSource()
	source.addInboxFile("f1", "big.md", []byte(strings.Repeat("a", config.MaxTextBytes+500)))
	analyzer := &fakeAnalyzer{textResult: &ai.Analysis{
		Summary: "s", Language: "en", FilenameSuggestion: "big", Items: []ai.Item{},
	}}

	p := newProcessor(t, source, analyzer, Options{})
	if _, err := p.ProcessBatch(context.Background(), "test"); err != nil {
		t.Fatal(err)
	}
	if analyzer.lastTextSize != config.MaxTextBytes {
		t.Errorf("text size sent = %d, want %d", analyzer.lastTextSize, config.MaxTextBytes)
	}
}

func TestProcessBatchTruncationKeepsValidUTF8(t *testing.T) {
	source := newFakeSource()
	// A two-byte rune straddles the byte cap.
	note := strings.Repeat("a", config.MaxTextBytes-1) + strings.Repeat("é", 300)
	source.addInboxFile("f1", "big.md", []byte(note))
	analyzer := &fakeAnalyzer{textResult: &ai.Analysis{
		Summary: "s", Language: "en", FilenameSuggestion: "big", Items: []ai.Item{},
	}}

	p := newProcessor(t, source, analyzer, Options{})
	if _, err := p.ProcessBatch(context.Background(), "test"); err != nil {
		t.Fatal(err)
	}
	if !utf8.ValidString(analyzer.lastText) {
		t.Error("truncated text is not valid UTF-8")
	}
	if analyzer.lastTextSize != config.MaxTextBytes-1 {
		t.Errorf("text size sent = %d, want %d", analyzer.lastTextSize, config.MaxTextBytes-1)
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText([]byte("héllo"), 10); got != "héllo" {
		t.Errorf("short input changed: %q", got)
	}
	// "é" is bytes 1-2; a cap of 2 lands mid-rune.
	if got := truncateText([]byte("héllo"), 2); got != "h" {
		t.Errorf("mid-rune cap = %q, want %q", got, "h")
	}
	if got := truncateText([]byte("héllo"), 3); got != "hé" {
		t.Errorf("boundary cap = %q, want %q", got, "hé")
	}
}

func TestProcessBatchSkipsProcessedFiles(t *testing.T) {
	source := newFakeSource()
	source.addInboxFile("f1", "seen.png", []byte("x"))
	analyzer := &fakeAnalyzer{imageResult: taskAnalysis()}
	repo := newTestRepo(t)
	if err := repo.InsertProcessedFile("f1", "seen.png", "", "", 0, "processed"); err != nil {
		t.Fatal(err)
	}
	notifier := &recordingNotifier{}

	p := newProcessor(t, source, analyzer, Options{
		Repo: repo, Notifier: notifier,
		Summarize: func(int, int, int, map[ai.ItemType]int, []error) string { return "x" },
	})
	result, err := p.ProcessBatch(context.Background(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped != 1 || result.Processed != 0 {
		t.Errorf("result = %+v", result)
	}
	if analyzer.imageCalls != 0 {
		t.Error("skipped file was analyzed")
	}
	// All-skipped batches stay silent.
	if len(notifier.messages) != 0 {
		t.Errorf("notifications = %v", notifier.messages)
	}
}

func TestProcessBatchAnalysisFailure(t *testing.T) {
	source := newFakeSource()
	source.addInboxFile("f1", "bad.png", []byte("x"))
	analyzer := &fakeAnalyzer{err: fmt.Errorf("model overloaded")}
	repo := newTestRepo(t)

	p := newProcessor(t, source, analyzer, Options{Repo: repo})
	result, err := p.ProcessBatch(context.Background(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 1 || result.Processed != 0 {
		t.Errorf("result = %+v", result)
	}
	// Failed files are neither archived nor recorded, so the next run
	// retries them.
	if len(source.moves) != 0 {
		t.Error("failed file was moved")
	}
	rec, _ := repo.GetProcessedFile("f1")
	if rec != nil {
		t.Error("failed file was recorded as processed")
	}
}

func TestProcessBatchCapsBatchSize(t *testing.T) {
	source := newFakeSource()
	for i := 0; i < config.MaxBatchSize+5; i++ {
		source.addInboxFile(fmt.Sprintf("f%d", i), fmt.Sprintf("s%d.png", i), []byte("x"))
	}
	analyzer := &fakeAnalyzer{imageResult: taskAnalysis()}

	p := newProcessor(t, source, analyzer, Options{})
	result, err := p.ProcessBatch(context.Background(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if result.Processed != config.MaxBatchSize {
		t.Errorf("processed %d, want %d", result.Processed, config.MaxBatchSize)
	}
}

func TestProcessBatchBusy(t *testing.T) {
	source := newFakeSource()
	p := newProcessor(t, source, &fakeAnalyzer{}, Options{})

	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.ProcessBatch(context.Background(), "test")
	if err != ErrBusy {
		t.Errorf("err = %v, want ErrBusy", err)
	}
}

func TestArchiveName(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		file       drive.InboxFile
		suggestion string
		want       string
	}{
		{drive.InboxFile{Name: "IMG_2041.PNG"}, "venue-reminder", "2025-03-01-venue-reminder.png"},
		{drive.InboxFile{Name: "note.txt"}, "stretch-note", "2025-03-01-stretch-note.txt"},
		{drive.InboxFile{Name: "IMG.png"}, "", "2025-03-01-processed.png"},
	}
	for _, tt := range tests {
		if got := ArchiveName(tt.file, tt.suggestion, now); got != tt.want {
			t.Errorf("ArchiveName(%q, %q) = %q, want %q", tt.file.Name, tt.suggestion, got, tt.want)
		}
	}
}
