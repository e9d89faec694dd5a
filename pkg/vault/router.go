package vault

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/akastas/screenshot-processor/pkg/ai"
	"github.com/akastas/screenshot-processor/pkg/config"
)

// Route describes the effects one item type triggers.
type Route struct {
	DailyNoteHeading string
	ExtraFile        string
	Booking          bool
	TickTick         bool
}

// routeMap is the static routing table keyed by item type. Types absent
// here are skipped with a warning.
var routeMap = map[ai.ItemType]Route{
	ai.TypeTask:        {DailyNoteHeading: "## Tasks", TickTick: true},
	ai.TypeEvent:       {DailyNoteHeading: "## Events", ExtraFile: config.EventsPath},
	ai.TypeIdea:        {ExtraFile: config.IdeasPath},
	ai.TypeDiary:       {DailyNoteHeading: "## Diary"},
	ai.TypeReference:   {ExtraFile: config.ReferencesPath},
	ai.TypeFinance:     {ExtraFile: config.FinancesPath},
	ai.TypePerson:      {ExtraFile: config.PeoplePath},
	ai.TypeLocation:    {ExtraFile: config.PlacesPath},
	ai.TypeInspiration: {ExtraFile: config.InspirationPath},
	ai.TypeQuote:       {ExtraFile: config.QuotesPath},
	ai.TypeLearning:    {ExtraFile: config.LearningPath},
	ai.TypeWishlist:    {ExtraFile: config.WishlistPath},
	ai.TypeRecipe:      {ExtraFile: config.RecipesPath},
	ai.TypeBooking:     {Booking: true},
}

// routeFor looks up an item's route. KNOWLEDGE items route dynamically to
// the AI-suggested vault path using the folder-name file convention
// ("3-Resources/Nutrition" → "3-Resources/Nutrition/Nutrition.md").
func routeFor(item ai.Item) (Route, bool) {
	if item.Type == ai.TypeKnowledge {
		if item.VaultPath == "" {
			return Route{}, false
		}
		path := strings.Trim(item.VaultPath, "/")
		leaf := path
		if idx := strings.LastIndex(path, "/"); idx >= 0 {
			leaf = path[idx+1:]
		}
		return Route{ExtraFile: path + "/" + leaf + ".md"}, true
	}
	route, ok := routeMap[item.Type]
	return route, ok
}

// Router orchestrates one processing batch: for each item it applies the
// routed effects independently, so one failing effect never blocks the
// item's other effects or subsequent items.
type Router struct {
	store    Store
	resolver *Resolver
	bookings *BookingManager
	tasks    TaskCreator // nil when the task manager is not configured

	dailyNoteID string
}

// NewRouter creates a router. tasks may be nil.
func NewRouter(store Store, resolver *Resolver, bookings *BookingManager, tasks TaskCreator) *Router {
	return &Router{store: store, resolver: resolver, bookings: bookings, tasks: tasks}
}

// RouteItems routes every item of an extraction result. Returns per-type
// counts and the per-item error log; errors never abort the batch.
func (r *Router) RouteItems(ctx context.Context, analysis *ai.Analysis, source string, today time.Time) (map[ai.ItemType]int, []error) {
	counts := make(map[ai.ItemType]int)
	var errs []error

	if len(analysis.Items) == 0 {
		log.Printf("router: no items to route for %s", source)
		return counts, nil
	}

	// Resolve the daily note once per batch even if several items need it.
	needsDaily := false
	for _, item := range analysis.Items {
		if route, ok := routeFor(item); ok && route.DailyNoteHeading != "" {
			needsDaily = true
			break
		}
	}
	if needsDaily && r.dailyNoteID == "" {
		id, err := FindOrCreateDailyNote(ctx, r.store, r.resolver, today)
		if err != nil {
			errs = append(errs, fmt.Errorf("daily note: %w", err))
		} else {
			r.dailyNoteID = id
		}
	}

	for _, item := range analysis.Items {
		route, ok := routeFor(item)
		if !ok {
			log.Printf("router: unknown item type %q, skipping", item.Type)
			continue
		}

		fragment := FormatItem(item, source, today)

		if route.DailyNoteHeading != "" && r.dailyNoteID != "" {
			if err := AppendToFile(ctx, r.store, r.dailyNoteID, fragment, route.DailyNoteHeading); err != nil {
				errs = append(errs, fmt.Errorf("%s: daily note append: %w", item.Type, err))
			}
		}

		if route.ExtraFile != "" {
			if err := r.appendToVaultFile(ctx, route.ExtraFile, fragment); err != nil {
				errs = append(errs, fmt.Errorf("%s: append to %s: %w", item.Type, route.ExtraFile, err))
			}
		}

		if route.TickTick && r.tasks != nil {
			spec := TaskSpec{
				Title:       item.Content,
				Description: "Source: " + source,
				Priority:    item.Priority,
				DueDate:     item.DueDate,
				ProjectHint: item.ProjectHint,
				Tags:        item.Tags,
			}
			if err := r.tasks.CreateItemTask(ctx, spec); err != nil {
				errs = append(errs, fmt.Errorf("%s: create task: %w", item.Type, err))
			}
		}

		if route.Booking {
			result, err := r.bookings.HandleBooking(ctx, item, source, analysis.Transcript, today)
			if err != nil {
				errs = append(errs, fmt.Errorf("booking: %w", err))
			} else {
				log.Printf("router: booking processed: %s", result.ClientFile)
			}
			// Follow-up task regardless of how the record write went.
			if r.tasks != nil {
				if err := r.tasks.CreateItemTask(ctx, FollowUpTask(item)); err != nil {
					errs = append(errs, fmt.Errorf("booking follow-up task: %w", err))
				}
			}
		}

		counts[item.Type]++
	}

	log.Printf("router: routed %d items from %s: %v", len(analysis.Items), source, counts)
	return counts, errs
}

// AppendDailySnippet appends a text note's daily snippet under the daily
// note's Notes heading.
func (r *Router) AppendDailySnippet(ctx context.Context, snippet, source string, today time.Time) error {
	if strings.TrimSpace(snippet) == "" {
		return nil
	}
	if r.dailyNoteID == "" {
		id, err := FindOrCreateDailyNote(ctx, r.store, r.resolver, today)
		if err != nil {
			return fmt.Errorf("daily note: %w", err)
		}
		r.dailyNoteID = id
	}
	fragment := fmt.Sprintf("- %s\n  - _Source: %s_", snippet, source)
	return AppendToFile(ctx, r.store, r.dailyNoteID, fragment, "## Notes")
}

// appendToVaultFile finds a file by its vault-relative path and appends the
// fragment, creating the file with a header on first write. Missing folders
// are an error; generic appends never create folders.
func (r *Router) appendToVaultFile(ctx context.Context, vaultPath, fragment string) error {
	folderPath, filename := SplitPath(vaultPath)
	folderID, err := r.resolver.ResolveFolder(ctx, folderPath)
	if err != nil {
		return err
	}

	existing, err := r.store.FindFileByName(ctx, filename, folderID)
	if err != nil {
		return fmt.Errorf("find %s: %w", filename, err)
	}
	if existing != nil {
		return AppendToFile(ctx, r.store, existing.ID, fragment, "")
	}

	if _, err := r.store.CreateFile(ctx, folderID, filename, NewFileContent(filename, fragment)); err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	return nil
}

// CreateAnalysisRecord writes a markdown record of one analysis into the
// archive folder and returns the new file's ID.
func (r *Router) CreateAnalysisRecord(ctx context.Context, analysis *ai.Analysis, source, archiveFolderID string, now time.Time) (string, error) {
	suggestion := analysis.FilenameSuggestion
	if suggestion == "" {
		suggestion = "analysis"
	}
	recordName := suggestion + "-analysis.md"

	transcript := analysis.Transcript
	if transcript == "" {
		transcript = "(no text detected)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "---\nsource: %s\nanalyzed: %s\nlanguage: %s\n---\n\n", source, now.Format(time.RFC3339), analysis.Language)
	fmt.Fprintf(&b, "# %s\n\n## Transcript\n%s\n\n## Items\n", analysis.Summary, transcript)
	for _, item := range analysis.Items {
		priority := item.Priority
		if priority == "" {
			priority = "medium"
		}
		fmt.Fprintf(&b, "- **[%s]** %s", item.Type, item.Content)
		if item.Name != "" {
			fmt.Fprintf(&b, " — %s", item.Name)
		}
		if item.Handle != "" {
			fmt.Fprintf(&b, " (%s)", item.Handle)
		}
		if len(item.Tags) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(item.Tags, ", "))
		}
		fmt.Fprintf(&b, " — _%s", priority)
		if item.DueDate != "" {
			fmt.Fprintf(&b, " (due: %s)", item.DueDate)
		}
		b.WriteString("_\n")
	}

	id, err := r.store.CreateFile(ctx, archiveFolderID, recordName, b.String())
	if err != nil {
		return "", fmt.Errorf("create analysis record: %w", err)
	}
	return id, nil
}
