// Package inbox runs the processing pipeline over the Drive inbox folder:
// download, analyze, route into the vault, then archive.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/akastas/screenshot-processor/pkg/ai"
	"github.com/akastas/screenshot-processor/pkg/config"
	"github.com/akastas/screenshot-processor/pkg/db"
	"github.com/akastas/screenshot-processor/pkg/integration/drive"
	"github.com/akastas/screenshot-processor/pkg/vault"
)

// ErrBusy is returned when a trigger arrives while a batch is running.
var ErrBusy = errors.New("a processing run is already in progress")

// InboxSource is the subset of the Drive service the processor uses.
type InboxSource interface {
	vault.Store
	ListInboxFiles(ctx context.Context, folderID string) ([]drive.InboxFile, error)
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
	RenameFile(ctx context.Context, fileID, newName string) error
	MoveFile(ctx context.Context, fileID, fromFolderID, toFolderID string) error
}

// Notifier delivers the post-batch summary. May be nil.
type Notifier interface {
	SendMessage(text string) error
}

// Summarizer formats the post-batch notification.
type Summarizer func(processed, skipped, failed int, counts map[ai.ItemType]int, errs []error) string

// Result reports what one batch run did.
type Result struct {
	Processed int
	Skipped   int
	Failed    int
	Counts    map[ai.ItemType]int
	Errors    []error
}

// Processor runs batches over the inbox folder. Only one batch runs at a
// time; concurrent triggers are rejected with ErrBusy.
type Processor struct {
	source    InboxSource
	analyzer  ai.Analyzer
	resolver  *vault.Resolver
	bookings  *vault.BookingManager
	tasks     vault.TaskCreator // may be nil
	repo      *db.Repository    // may be nil
	notifier  Notifier          // may be nil
	summarize Summarizer

	inboxFolderID   string
	archiveFolderID string

	mu sync.Mutex
}

// Options carries the processor's optional collaborators.
type Options struct {
	Tasks     vault.TaskCreator
	Repo      *db.Repository
	Notifier  Notifier
	Summarize Summarizer
}

// NewProcessor creates an inbox processor.
func NewProcessor(source InboxSource, analyzer ai.Analyzer, resolver *vault.Resolver, bookings *vault.BookingManager, inboxFolderID, archiveFolderID string, opts Options) *Processor {
	return &Processor{
		source:          source,
		analyzer:        analyzer,
		resolver:        resolver,
		bookings:        bookings,
		tasks:           opts.Tasks,
		repo:            opts.Repo,
		notifier:        opts.Notifier,
		summarize:       opts.Summarize,
		inboxFolderID:   inboxFolderID,
		archiveFolderID: archiveFolderID,
	}
}

// ProcessBatch runs one batch: lists the inbox, processes up to the batch
// cap of supported files sequentially, and sends a summary notification when
// anything was processed. Returns ErrBusy when a batch is already running.
func (p *Processor) ProcessBatch(ctx context.Context, triggerSource string) (*Result, error) {
	if !p.mu.TryLock() {
		return nil, ErrBusy
	}
	defer p.mu.Unlock()

	var runID int64
	if p.repo != nil {
		id, err := p.repo.StartRun(triggerSource)
		if err != nil {
			log.Printf("inbox: record run start: %v", err)
		} else {
			runID = id
		}
	}

	files, err := p.source.ListInboxFiles(ctx, p.inboxFolderID)
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	if len(files) > config.MaxBatchSize {
		log.Printf("inbox: %d files queued, capping batch at %d", len(files), config.MaxBatchSize)
		files = files[:config.MaxBatchSize]
	}

	result := &Result{Counts: make(map[ai.ItemType]int)}
	// The daily-note cache lives on the router, so one router serves the
	// whole batch.
	router := vault.NewRouter(p.source, p.resolver, p.bookings, p.tasks)

	for _, f := range files {
		if p.alreadyProcessed(f.ID) {
			result.Skipped++
			continue
		}

		if err := p.processFile(ctx, router, f, result); err != nil {
			log.Printf("inbox: %s: %v", f.Name, err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", f.Name, err))
			continue
		}
		result.Processed++
	}

	if p.repo != nil && runID != 0 {
		if err := p.repo.FinishRun(runID, result.Processed, result.Skipped, result.Failed); err != nil {
			log.Printf("inbox: record run finish: %v", err)
		}
	}

	if p.notifier != nil && p.summarize != nil && result.Processed+result.Failed > 0 {
		if err := p.notifier.SendMessage(p.summarize(result.Processed, result.Skipped, result.Failed, result.Counts, result.Errors)); err != nil {
			log.Printf("inbox: send batch summary: %v", err)
		}
	}

	log.Printf("inbox: batch done: %d processed, %d skipped, %d failed", result.Processed, result.Skipped, result.Failed)
	return result, nil
}

func (p *Processor) alreadyProcessed(driveFileID string) bool {
	if p.repo == nil {
		return false
	}
	rec, err := p.repo.GetProcessedFile(driveFileID)
	if err != nil {
		log.Printf("inbox: ledger lookup %s: %v", driveFileID, err)
		return false
	}
	return rec != nil
}

// processFile runs the full pipeline for one inbox file. Routing errors are
// collected on the result but do not fail the file; analysis errors do.
func (p *Processor) processFile(ctx context.Context, router *vault.Router, f drive.InboxFile, result *Result) error {
	data, err := p.source.DownloadFile(ctx, f.ID)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	now := time.Now()
	var analysis *ai.Analysis
	switch {
	case f.IsImage():
		analysis, err = p.analyzer.AnalyzeImage(ctx, data, mimeTypeFor(f))
	case f.IsText():
		analysis, err = p.analyzer.AnalyzeText(ctx, truncateText(data, config.MaxTextBytes))
	default:
		return fmt.Errorf("unsupported file type")
	}
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	counts, routeErrs := router.RouteItems(ctx, analysis, f.Name, now)
	for t, n := range counts {
		result.Counts[t] += n
	}
	result.Errors = append(result.Errors, routeErrs...)

	if analysis.DailySnippet != "" {
		if err := router.AppendDailySnippet(ctx, analysis.DailySnippet, f.Name, now); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("daily snippet: %w", err))
		}
	}

	if _, err := router.CreateAnalysisRecord(ctx, analysis, f.Name, p.archiveFolderID, now); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("analysis record: %w", err))
	}

	newName := p.archiveFile(ctx, f, analysis, now)

	if p.repo != nil {
		itemTotal := 0
		for _, n := range counts {
			itemTotal += n
		}
		if err := p.repo.InsertProcessedFile(f.ID, f.Name, newName, analysis.Summary, itemTotal, "processed"); err != nil {
			log.Printf("inbox: record %s: %v", f.Name, err)
		}
	}
	return nil
}

// archiveFile renames the inbox file to a dated descriptive name and moves
// it to the archive folder. Failures are logged only; the ledger entry keeps
// a stuck file from being reprocessed.
func (p *Processor) archiveFile(ctx context.Context, f drive.InboxFile, analysis *ai.Analysis, now time.Time) string {
	newName := ArchiveName(f, analysis.FilenameSuggestion, now)
	if err := p.source.RenameFile(ctx, f.ID, newName); err != nil {
		log.Printf("inbox: rename %s: %v", f.Name, err)
		newName = f.Name
	}
	if err := p.source.MoveFile(ctx, f.ID, p.inboxFolderID, p.archiveFolderID); err != nil {
		log.Printf("inbox: move %s to archive: %v", f.Name, err)
	}
	return newName
}

// truncateText caps a text note at limit bytes. The cut backs off to the
// previous rune boundary so the result stays valid UTF-8.
func truncateText(data []byte, limit int) string {
	if len(data) <= limit {
		return string(data)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return string(data[:cut])
}

// ArchiveName builds the archived filename: <date>-<suggestion>.<ext>.
func ArchiveName(f drive.InboxFile, suggestion string, now time.Time) string {
	if suggestion == "" {
		suggestion = "processed"
	}
	name := now.Format("2006-01-02") + "-" + suggestion
	if ext := f.Ext(); ext != "" {
		name += "." + ext
	}
	return name
}

// mimeTypeFor derives the upload MIME type, preferring Drive's metadata.
func mimeTypeFor(f drive.InboxFile) string {
	if f.MimeType != "" && f.MimeType != "application/octet-stream" {
		return f.MimeType
	}
	if byExt := mime.TypeByExtension("." + f.Ext()); byExt != "" {
		return byExt
	}
	return "image/png"
}
