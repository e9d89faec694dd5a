package vault

import (
	"fmt"
	"strings"
	"time"

	"github.com/akastas/screenshot-processor/pkg/ai"
)

// priorityGlyph maps an item priority to its Obsidian task glyph. Unknown
// priorities render without a glyph.
var priorityGlyph = map[string]string{
	"high":   "🔺",
	"medium": "🔸",
	"low":    "🔹",
}

const dateLayout = "2006-01-02"

// FormatItem renders one item as an Obsidian-compatible markdown fragment
// for its destination file. Pure function, no I/O. Every fragment ends with
// a source-attribution line naming the original input.
func FormatItem(item ai.Item, source string, today time.Time) string {
	date := today.Format(dateLayout)
	var lines []string

	switch item.Type {
	case ai.TypeTask:
		due := ""
		if item.DueDate != "" {
			due = " 📅 " + item.DueDate
		}
		lines = append(lines, fmt.Sprintf("- [ ] %s %s%s", priorityGlyph[item.Priority], item.Content, due))

	case ai.TypePerson:
		lines = append(lines, "### "+nameOrDerived(item))
		if item.Handle != "" {
			lines = append(lines, "- **Handle:** "+item.Handle)
		}
		if item.Platform != "" {
			lines = append(lines, "- **Platform:** "+item.Platform)
		}
		role := item.Role
		if role == "" {
			role = "unknown"
		}
		lines = append(lines, "- **Role:** "+role)
		if len(item.Tags) > 0 {
			lines = append(lines, "- **Tags:** "+strings.Join(item.Tags, ", "))
		}
		if item.Location != "" {
			lines = append(lines, "- **Location:** "+item.Location)
		}
		lines = append(lines, "- **Notes:** "+item.Content, "- **Added:** "+date)

	case ai.TypeLocation:
		lines = append(lines, "### "+nameOrDerived(item))
		if item.Location != "" {
			lines = append(lines, "- **Location:** "+item.Location)
		}
		if len(item.Tags) > 0 {
			lines = append(lines, "- **Type:** "+strings.Join(item.Tags, ", "))
		}
		lines = append(lines, "- **Notes:** "+item.Content, "- **Added:** "+date)

	case ai.TypeInspiration:
		lines = append(lines, "### "+truncate(item.Content, 80))
		if len(item.Tags) > 0 {
			lines = append(lines, "- **Style:** "+strings.Join(item.Tags, ", "))
		}
		lines = append(lines, "- **Notes:** "+item.Content, "- **Added:** "+date)

	case ai.TypeQuote:
		lines = append(lines, "### "+truncate(item.Content, 80))
		if item.Name != "" {
			lines = append(lines, "- **Author:** "+item.Name)
		}
		if len(item.Tags) > 0 {
			lines = append(lines, "- **Tags:** "+strings.Join(item.Tags, ", "))
		}
		lines = append(lines, "- **Added:** "+date)

	case ai.TypeLearning:
		name := item.Name
		if name == "" {
			name = truncate(item.Content, 60)
		}
		lines = append(lines, "### "+name)
		if item.Platform != "" {
			lines = append(lines, "- **Platform:** "+item.Platform)
		}
		if item.Handle != "" {
			lines = append(lines, "- **Instructor:** "+item.Handle)
		}
		if len(item.Tags) > 0 {
			lines = append(lines, "- **Topics:** "+strings.Join(item.Tags, ", "))
		}
		lines = append(lines, "- **Notes:** "+item.Content, "- **Added:** "+date)

	case ai.TypeWishlist:
		lines = append(lines, "### "+truncate(item.Content, 80))
		if len(item.Tags) > 0 {
			lines = append(lines, "- **Category:** "+strings.Join(item.Tags, ", "))
		}
		lines = append(lines, "- **Status:** 🔲 want", "- **Notes:** "+item.Content, "- **Added:** "+date)

	case ai.TypeFinance:
		lines = append(lines, fmt.Sprintf("| %s | %s | `screenshot` |", date, item.Content))

	case ai.TypeRecipe:
		name := item.Name
		if name == "" {
			name = truncate(item.Content, 80)
		}
		lines = append(lines, "### "+name)
		if item.Servings != "" {
			lines = append(lines, "- **Servings:** "+item.Servings)
		}
		if item.PrepTime != "" {
			lines = append(lines, "- **Prep time:** "+item.PrepTime)
		}
		if len(item.Ingredients) > 0 {
			lines = append(lines, "- **Ingredients:**")
			for _, ing := range item.Ingredients {
				lines = append(lines, "  - "+ing)
			}
		}
		if len(item.Steps) > 0 {
			lines = append(lines, "- **Steps:**")
			for i, step := range item.Steps {
				lines = append(lines, fmt.Sprintf("  %d. %s", i+1, step))
			}
		}
		lines = append(lines, "- **Added:** "+date)

	default:
		// IDEA, DIARY, REFERENCE, KNOWLEDGE and anything else: plain bullet.
		lines = append(lines, "- "+item.Content)
	}

	lines = append(lines, fmt.Sprintf("  - _Source: %s_", source))
	return strings.Join(lines, "\n")
}

// nameOrDerived uses the item's name, falling back to the text before an
// em-dash in the content.
func nameOrDerived(item ai.Item) string {
	if item.Name != "" {
		return item.Name
	}
	name, _, _ := strings.Cut(item.Content, "—")
	return strings.TrimSpace(name)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
