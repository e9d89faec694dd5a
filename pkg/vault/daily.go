package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/akastas/screenshot-processor/pkg/config"
)

// FindOrCreateDailyNote returns the file ID of the daily note for the given
// date, creating it from the fixed template on first access. The Daily Notes
// folder itself must already exist.
func FindOrCreateDailyNote(ctx context.Context, store Store, resolver *Resolver, date time.Time) (string, error) {
	folderID, err := resolver.ResolveFolder(ctx, config.DailyNotesFolder)
	if err != nil {
		return "", fmt.Errorf("daily notes folder: %w", err)
	}

	filename := date.Format(dateLayout) + ".md"
	existing, err := store.FindFileByName(ctx, filename, folderID)
	if err != nil {
		return "", fmt.Errorf("find daily note: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	content := fmt.Sprintf(config.DailyNoteTemplate, date.Format(dateLayout))
	id, err := store.CreateFile(ctx, folderID, filename, content)
	if err != nil {
		return "", fmt.Errorf("create daily note: %w", err)
	}
	return id, nil
}
