package vault

import (
	"context"
	"fmt"
	"strings"
)

// InsertUnderHeading merges a fragment into existing content. When heading
// is non-empty and present verbatim, the fragment is inserted directly after
// the heading's line, so the newest entry sits at the top of its section.
// Otherwise the fragment is appended at end-of-file with exactly one newline
// separating it from prior content.
func InsertUnderHeading(current, fragment, heading string) string {
	if heading != "" {
		if idx := strings.Index(current, heading); idx >= 0 {
			pos := idx + len(heading)
			if pos < len(current) && current[pos] == '\n' {
				pos++
			}
			return current[:pos] + fragment + "\n" + current[pos:]
		}
	}
	if !strings.HasSuffix(current, "\n") {
		current += "\n"
	}
	return current + fragment + "\n"
}

// NewFileContent builds the content for a first write: a one-line header
// derived from the filename, then the fragment.
func NewFileContent(filename, fragment string) string {
	header := "# " + strings.TrimSuffix(filename, ".md")
	return header + "\n\n" + fragment + "\n"
}

// AppendToFile inserts a fragment into an existing stored file, under a
// heading when requested. Whole-content read-modify-write; callers must
// serialize concurrent writers externally.
func AppendToFile(ctx context.Context, store Store, fileID, fragment, heading string) error {
	current, err := store.ReadFile(ctx, fileID)
	if err != nil {
		return fmt.Errorf("read %s: %w", fileID, err)
	}
	updated := InsertUnderHeading(current, fragment, heading)
	if err := store.OverwriteFile(ctx, fileID, updated); err != nil {
		return fmt.Errorf("write %s: %w", fileID, err)
	}
	return nil
}
