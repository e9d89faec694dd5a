// Package dashboard assembles a snapshot of the vault and task state, the
// raw material for proactive digests.
package dashboard

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/akastas/screenshot-processor/pkg/config"
	"github.com/akastas/screenshot-processor/pkg/integration/ticktick"
	"github.com/akastas/screenshot-processor/pkg/vault"
)

// ClientRecord is one booking client as read from its record's front matter.
type ClientRecord struct {
	File      string
	Client    string `yaml:"client"`
	Platform  string `yaml:"platform"`
	ShootType string `yaml:"shoot_type"`
	Status    string `yaml:"status"`
	Updated   string `yaml:"last_updated"`
}

// TaskSummary buckets TickTick tasks for digest prompts.
type TaskSummary struct {
	Overdue      []ticktick.TaskInfo
	DueToday     []ticktick.TaskInfo
	Upcoming     []ticktick.TaskInfo
	HighPriority []ticktick.TaskInfo
}

// RecentFile is a tail snippet of one frequently appended vault file,
// context for the digest generator about recent captures.
type RecentFile struct {
	Name    string
	Label   string
	Snippet string
}

// Snapshot is everything the digest generator gets to look at.
type Snapshot struct {
	Date          time.Time
	Clients       []ClientRecord
	DailySections map[string]string
	Tasks         *TaskSummary
	Recent        []RecentFile
}

// TaskLister is the subset of the task client the scanner uses.
type TaskLister interface {
	ResolveProject(ctx context.Context, name string) (string, error)
	ListTasks(ctx context.Context, projectID string) ([]ticktick.TaskInfo, error)
}

// Scanner reads vault and task state. tasks may be nil.
type Scanner struct {
	store    vault.Store
	resolver *vault.Resolver
	tasks    TaskLister
	project  string
}

// NewScanner creates a dashboard scanner. project is the task project to
// summarize; ignored when tasks is nil.
func NewScanner(store vault.Store, resolver *vault.Resolver, tasks TaskLister, project string) *Scanner {
	return &Scanner{store: store, resolver: resolver, tasks: tasks, project: project}
}

// Scan assembles a snapshot for the given date. Partial failures degrade to
// empty sections rather than failing the scan.
func (s *Scanner) Scan(ctx context.Context, today time.Time) *Snapshot {
	snap := &Snapshot{Date: today, DailySections: map[string]string{}}

	clients, err := s.scanClients(ctx)
	if err != nil {
		log.Printf("dashboard: scan clients: %v", err)
	} else {
		snap.Clients = clients
	}

	sections, err := s.scanDailyNote(ctx, today)
	if err != nil {
		log.Printf("dashboard: scan daily note: %v", err)
	} else {
		snap.DailySections = sections
	}

	if s.tasks != nil {
		tasks, err := s.scanTasks(ctx, today)
		if err != nil {
			log.Printf("dashboard: scan tasks: %v", err)
		} else {
			snap.Tasks = tasks
		}
	}

	snap.Recent = s.scanRecentFiles(ctx)

	return snap
}

// snippetLen is how much of a collection file's tail ends up in the snapshot.
const snippetLen = 500

// recentSources are the append-only collection files worth showing the
// digest generator.
var recentSources = []struct {
	label string
	path  string
}{
	{"ideas", config.IdeasPath},
	{"inspiration", config.InspirationPath},
	{"quotes", config.QuotesPath},
	{"learning", config.LearningPath},
}

// scanRecentFiles reads the tail of each collection file. Missing folders
// and files are skipped; read failures are logged per file.
func (s *Scanner) scanRecentFiles(ctx context.Context) []RecentFile {
	var recent []RecentFile
	for _, src := range recentSources {
		slash := strings.LastIndex(src.path, "/")
		if slash < 0 {
			continue
		}
		folderPath, name := src.path[:slash], src.path[slash+1:]

		folderID, err := s.resolver.ResolveFolder(ctx, folderPath)
		if err != nil {
			continue
		}
		info, err := s.store.FindFileByName(ctx, name, folderID)
		if err != nil || info == nil {
			continue
		}
		content, err := s.store.ReadFile(ctx, info.ID)
		if err != nil {
			log.Printf("dashboard: read %s: %v", name, err)
			continue
		}
		recent = append(recent, RecentFile{
			Name:    name,
			Label:   src.label,
			Snippet: TailSnippet(content, snippetLen),
		})
	}
	return recent
}

// TailSnippet returns the last n bytes of content, moved forward to a rune
// boundary so the snippet stays valid UTF-8.
func TailSnippet(content string, n int) string {
	if len(content) <= n {
		return content
	}
	cut := len(content) - n
	for cut < len(content) && !utf8.RuneStart(content[cut]) {
		cut++
	}
	return content[cut:]
}

// scanClients reads every client record's front matter.
func (s *Scanner) scanClients(ctx context.Context) ([]ClientRecord, error) {
	folderID, err := s.resolver.ResolveFolder(ctx, config.ClientsPath)
	if err != nil {
		return nil, nil // no clients folder yet
	}

	files, err := s.store.ListMarkdownFiles(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("list client files: %w", err)
	}

	var records []ClientRecord
	for _, f := range files {
		content, err := s.store.ReadFile(ctx, f.ID)
		if err != nil {
			log.Printf("dashboard: read %s: %v", f.Name, err)
			continue
		}
		rec, err := ParseClientRecord(content)
		if err != nil {
			log.Printf("dashboard: parse %s: %v", f.Name, err)
			continue
		}
		rec.File = f.Name
		records = append(records, rec)
	}
	return records, nil
}

// ParseClientRecord extracts the YAML front matter of a client record.
func ParseClientRecord(content string) (ClientRecord, error) {
	var rec ClientRecord
	fm, ok := frontMatter(content)
	if !ok {
		return rec, fmt.Errorf("no front matter")
	}
	if err := yaml.Unmarshal([]byte(fm), &rec); err != nil {
		return rec, fmt.Errorf("parse front matter: %w", err)
	}
	return rec, nil
}

// frontMatter returns the YAML block between the opening and closing --- lines.
func frontMatter(content string) (string, bool) {
	if !strings.HasPrefix(content, "---\n") {
		return "", false
	}
	rest := content[4:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// scanDailyNote splits today's daily note into its heading sections.
func (s *Scanner) scanDailyNote(ctx context.Context, today time.Time) (map[string]string, error) {
	folderID, err := s.resolver.ResolveFolder(ctx, config.DailyNotesFolder)
	if err != nil {
		return map[string]string{}, nil
	}
	info, err := s.store.FindFileByName(ctx, today.Format("2006-01-02")+".md", folderID)
	if err != nil {
		return nil, fmt.Errorf("find daily note: %w", err)
	}
	if info == nil {
		return map[string]string{}, nil
	}
	content, err := s.store.ReadFile(ctx, info.ID)
	if err != nil {
		return nil, fmt.Errorf("read daily note: %w", err)
	}
	return SplitSections(content), nil
}

// SplitSections splits markdown into level-2 heading sections, keyed by the
// heading text without the "## " prefix. Content above the first heading is
// discarded.
func SplitSections(content string) map[string]string {
	sections := make(map[string]string)
	var current string
	var buf []string

	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(buf, "\n"))
		}
		buf = buf[:0]
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			current = strings.TrimPrefix(line, "## ")
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return sections
}

// scanTasks buckets the project's open tasks relative to today.
func (s *Scanner) scanTasks(ctx context.Context, today time.Time) (*TaskSummary, error) {
	projectID, err := s.tasks.ResolveProject(ctx, s.project)
	if err != nil {
		return nil, fmt.Errorf("resolve project: %w", err)
	}
	tasks, err := s.tasks.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return BucketTasks(tasks, today), nil
}

// BucketTasks sorts open tasks into overdue / due today / upcoming buckets
// and collects the high-priority ones. Completed tasks are skipped.
func BucketTasks(tasks []ticktick.TaskInfo, today time.Time) *TaskSummary {
	summary := &TaskSummary{}
	day := today.Format("2006-01-02")

	for _, t := range tasks {
		if t.Status != 0 {
			continue
		}
		if t.Priority >= 5 {
			summary.HighPriority = append(summary.HighPriority, t)
		}
		if t.DueDate == "" {
			continue
		}
		due := t.DueDate
		if len(due) > 10 {
			due = due[:10]
		}
		switch {
		case due < day:
			summary.Overdue = append(summary.Overdue, t)
		case due == day:
			summary.DueToday = append(summary.DueToday, t)
		default:
			summary.Upcoming = append(summary.Upcoming, t)
		}
	}
	return summary
}

// Render flattens a snapshot into the plain-text context block fed to the
// digest prompt.
func (s *Snapshot) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\n", s.Date.Format("Monday, 2 January 2006"))

	if len(s.Clients) > 0 {
		b.WriteString("\nBooking clients:\n")
		for _, c := range s.Clients {
			fmt.Fprintf(&b, "- %s (%s): %s %s, updated %s\n",
				c.Client, c.Platform, vault.StatusGlyph(c.Status), c.Status, c.Updated)
		}
	}

	if s.Tasks != nil {
		writeTaskBucket(&b, "Overdue tasks", s.Tasks.Overdue)
		writeTaskBucket(&b, "Due today", s.Tasks.DueToday)
		writeTaskBucket(&b, "Upcoming tasks", s.Tasks.Upcoming)
		writeTaskBucket(&b, "High priority", s.Tasks.HighPriority)
	}

	for _, heading := range []string{"Tasks", "Events", "Diary", "Notes"} {
		if text := s.DailySections[heading]; text != "" {
			fmt.Fprintf(&b, "\nToday's %s section:\n%s\n", strings.ToLower(heading), text)
		}
	}

	if len(s.Recent) > 0 {
		b.WriteString("\nRecent vault content:\n")
		for _, r := range s.Recent {
			fmt.Fprintf(&b, "[%s] %s:\n…%s\n", r.Label, r.Name, strings.TrimSpace(r.Snippet))
		}
	}
	return b.String()
}

func writeTaskBucket(b *strings.Builder, label string, tasks []ticktick.TaskInfo) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", label)
	for _, t := range tasks {
		fmt.Fprintf(b, "- %s", t.Title)
		if t.DueDate != "" {
			due := t.DueDate
			if len(due) > 10 {
				due = due[:10]
			}
			fmt.Fprintf(b, " (due %s)", due)
		}
		b.WriteString("\n")
	}
}
