package vault

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/akastas/screenshot-processor/pkg/ai"
	"github.com/akastas/screenshot-processor/pkg/config"
)

// Booking lifecycle statuses. The engine records whatever status the AI
// classified; need-to-reply is the default when absent.
const (
	StatusNeedToReply = "need-to-reply"
	StatusWaiting     = "waiting"
	StatusConfirmed   = "confirmed"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
)

var statusGlyph = map[string]string{
	StatusNeedToReply: "🔴",
	StatusWaiting:     "🟡",
	StatusConfirmed:   "🟢",
	StatusCompleted:   "✅",
	StatusCancelled:   "❌",
}

// StatusGlyph returns the glyph for a booking status, falling back to the
// need-to-reply glyph for unknown values.
func StatusGlyph(status string) string {
	if g, ok := statusGlyph[status]; ok {
		return g
	}
	return statusGlyph[StatusNeedToReply]
}

// BookingManager maintains one persistent client record per conversation,
// keyed by name+platform or by social handle, merging new conversation turns
// into it over time.
type BookingManager struct {
	store    Store
	resolver *Resolver
	replies  ReplyGenerator
}

// NewBookingManager creates a booking reconciliation engine.
func NewBookingManager(store Store, resolver *Resolver, replies ReplyGenerator) *BookingManager {
	return &BookingManager{store: store, resolver: resolver, replies: replies}
}

// BookingResult reports what one reconciliation pass did.
type BookingResult struct {
	ClientFile     string
	Created        bool
	Status         string
	SuggestedReply string
}

// HandleBooking processes one BOOKING item: finds or creates the client
// record and merges the conversation turn into it. When the item carries
// client questions and the FAQ document exists and is non-empty, a suggested
// reply is synthesized and embedded as a blockquote.
func (m *BookingManager) HandleBooking(ctx context.Context, item ai.Item, source, transcript string, today time.Time) (*BookingResult, error) {
	clientName := item.Name
	if clientName == "" {
		clientName = "Unknown Client"
	}
	platform := item.Platform
	if platform == "" {
		platform = "Unknown"
	}
	status := item.Status
	if status == "" {
		status = StatusNeedToReply
	}

	result := &BookingResult{Status: status}

	// Second-pass reply: only when questions exist and the FAQ has content.
	if len(item.Questions) > 0 {
		faq := m.faqContent(ctx)
		if strings.TrimSpace(faq) != "" {
			reply, err := m.replies.GenerateBookingReply(ctx, transcript, item.Questions, faq)
			if err != nil {
				log.Printf("booking: reply generation for %s: %v", clientName, err)
			} else {
				result.SuggestedReply = reply
			}
		}
	}

	clientsFolderID, err := m.resolver.EnsureFolder(ctx, config.ClientsPath)
	if err != nil {
		return nil, fmt.Errorf("clients folder: %w", err)
	}

	existingID, err := m.findExistingClientFile(ctx, clientsFolderID, clientName, platform, item.Handle)
	if err != nil {
		return nil, err
	}

	filename := ClientFilename(clientName, platform)
	if existingID != "" {
		entry := buildUpdateEntry(item, source, today, result.SuggestedReply)
		if err := AppendToFile(ctx, m.store, existingID, entry, ""); err != nil {
			return nil, fmt.Errorf("append conversation entry: %w", err)
		}
		if err := m.rewriteFrontmatter(ctx, existingID, status, today); err != nil {
			log.Printf("booking: frontmatter rewrite for %s: %v", filename, err)
		}
		result.ClientFile = filename
		return result, nil
	}

	content := buildNewClientContent(item, source, today, result.SuggestedReply)
	if _, err := m.store.CreateFile(ctx, clientsFolderID, filename, content); err != nil {
		return nil, fmt.Errorf("create client file %s: %w", filename, err)
	}
	result.ClientFile = filename
	result.Created = true
	return result, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
var slugSpaces = regexp.MustCompile(`\s+`)

// Slugify converts a name to a filename-safe slug, capped at 50 characters.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = slugSpaces.ReplaceAllString(slug, "-")
	if len(slug) > 50 {
		slug = slug[:50]
	}
	return slug
}

// ClientFilename derives the canonical record filename, e.g.
// "maria-instagram.md".
func ClientFilename(clientName, platform string) string {
	parts := []string{Slugify(clientName)}
	if platform != "" {
		parts = append(parts, Slugify(platform))
	}
	return strings.Join(parts, "-") + ".md"
}

// findExistingClientFile resolves a client identity against existing record
// filenames: exact canonical-filename match first, then handle-slug
// substring match. Returns "" when the client is new.
func (m *BookingManager) findExistingClientFile(ctx context.Context, clientsFolderID, clientName, platform, handle string) (string, error) {
	files, err := m.store.ListMarkdownFiles(ctx, clientsFolderID)
	if err != nil {
		return "", fmt.Errorf("list client files: %w", err)
	}

	expected := strings.ToLower(ClientFilename(clientName, platform))
	for _, f := range files {
		if strings.ToLower(f.Name) == expected {
			return f.ID, nil
		}
	}

	if handle != "" {
		handleSlug := Slugify(strings.TrimPrefix(handle, "@"))
		if handleSlug != "" {
			for _, f := range files {
				if strings.Contains(strings.ToLower(f.Name), handleSlug) {
					return f.ID, nil
				}
			}
		}
	}
	return "", nil
}

func buildNewClientContent(item ai.Item, source string, today time.Time, suggestedReply string) string {
	clientName := item.Name
	if clientName == "" {
		clientName = "Unknown Client"
	}
	platform := item.Platform
	if platform == "" {
		platform = "Unknown"
	}
	shootType := item.ShootType
	if shootType == "" {
		shootType = "general"
	}
	status := item.Status
	if status == "" {
		status = StatusNeedToReply
	}
	date := today.Format(dateLayout)

	var fm []string
	fm = append(fm, "---", "client: "+clientName)
	if item.Handle != "" {
		fm = append(fm, fmt.Sprintf("handle: %q", item.Handle))
	}
	fm = append(fm,
		"platform: "+platform,
		"shoot_type: "+shootType,
		"status: "+status,
	)
	if item.Location != "" {
		fm = append(fm, "location: "+item.Location)
	}
	if item.DueDate != "" {
		fm = append(fm, "date_discussed: "+item.DueDate)
	}
	fm = append(fm,
		"created: "+date,
		"last_updated: "+date,
		fmt.Sprintf("tags: [booking, %s]", shootType),
		"---",
	)

	lines := []string{
		strings.Join(fm, "\n"),
		"",
		fmt.Sprintf("# %s — %s Session", clientName, titleCase(shootType)),
		"",
		"## Conversation Log",
		fmt.Sprintf("### %s — %s", date, platform),
		fmt.Sprintf("- %s **Status:** %s", StatusGlyph(status), status),
		"- **Summary:** " + item.Content,
	}
	lines = append(lines, questionLines(item.Questions)...)
	lines = append(lines, fmt.Sprintf("- _Source: %s_", source))
	if suggestedReply != "" {
		lines = append(lines, "", "## 💬 Suggested Reply", "> "+suggestedReply)
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// buildUpdateEntry builds the incremental conversation-log block appended to
// an existing client record.
func buildUpdateEntry(item ai.Item, source string, today time.Time, suggestedReply string) string {
	platform := item.Platform
	if platform == "" {
		platform = "Unknown"
	}
	status := item.Status
	if status == "" {
		status = StatusNeedToReply
	}

	lines := []string{
		"",
		fmt.Sprintf("### %s — %s", today.Format(dateLayout), platform),
		fmt.Sprintf("- %s **Status:** %s", StatusGlyph(status), status),
		"- **Summary:** " + item.Content,
	}
	lines = append(lines, questionLines(item.Questions)...)
	lines = append(lines, fmt.Sprintf("- _Source: %s_", source))
	if suggestedReply != "" {
		lines = append(lines, "", "#### 💬 Suggested Reply", "> "+suggestedReply)
	}
	return strings.Join(lines, "\n")
}

func questionLines(questions []string) []string {
	if len(questions) == 0 {
		return nil
	}
	lines := []string{"- **Questions:**"}
	for _, q := range questions {
		lines = append(lines, "  - "+q)
	}
	return lines
}

var statusLine = regexp.MustCompile(`(?m)^status: .+$`)
var lastUpdatedLine = regexp.MustCompile(`(?m)^last_updated: .+$`)

// rewriteFrontmatter updates the status and last_updated front-matter lines
// in place, leaving every other line untouched.
func (m *BookingManager) rewriteFrontmatter(ctx context.Context, fileID, newStatus string, today time.Time) error {
	content, err := m.store.ReadFile(ctx, fileID)
	if err != nil {
		return fmt.Errorf("read client file: %w", err)
	}
	content = replaceFirst(statusLine, content, "status: "+newStatus)
	content = replaceFirst(lastUpdatedLine, content, "last_updated: "+today.Format(dateLayout))
	if err := m.store.OverwriteFile(ctx, fileID, content); err != nil {
		return fmt.Errorf("write client file: %w", err)
	}
	return nil
}

func replaceFirst(re *regexp.Regexp, s, replacement string) string {
	if loc := re.FindStringIndex(s); loc != nil {
		return s[:loc[0]] + replacement + s[loc[1]:]
	}
	return s
}

// faqContent reads the FAQ document; missing folder or file yields "".
func (m *BookingManager) faqContent(ctx context.Context) string {
	folderPath, filename := SplitPath(config.FAQPath)
	folderID, err := m.resolver.ResolveFolder(ctx, folderPath)
	if err != nil {
		return ""
	}
	info, err := m.store.FindFileByName(ctx, filename, folderID)
	if err != nil || info == nil {
		return ""
	}
	content, err := m.store.ReadFile(ctx, info.ID)
	if err != nil {
		log.Printf("booking: read FAQ: %v", err)
		return ""
	}
	return content
}

// FollowUpTask derives the external follow-up task for a processed booking.
// Title and priority depend on the classified status.
func FollowUpTask(item ai.Item) TaskSpec {
	clientName := item.Name
	if clientName == "" {
		clientName = "Client"
	}
	status := item.Status
	if status == "" {
		status = StatusNeedToReply
	}

	var title, priority string
	switch status {
	case StatusNeedToReply:
		title = fmt.Sprintf("Reply to %s — %s", clientName, item.Platform)
		priority = "high"
	case StatusWaiting:
		title = fmt.Sprintf("Follow up with %s — %s", clientName, item.Platform)
		priority = "medium"
	case StatusConfirmed:
		title = fmt.Sprintf("Prepare shoot for %s — %s", clientName, item.Platform)
		priority = "high"
	default:
		title = fmt.Sprintf("Booking: %s — %s", clientName, item.Platform)
		priority = "medium"
	}

	return TaskSpec{
		Title:       title,
		Priority:    priority,
		DueDate:     item.DueDate,
		ProjectHint: "Photography",
		Tags:        []string{"booking"},
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
