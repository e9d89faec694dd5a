package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Repository handles data access
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// ProcessedFile represents a row in the processed_files ledger.
type ProcessedFile struct {
	ID           int64
	DriveFileID  string
	OriginalName string
	RenamedTo    string
	Summary      string
	ItemCount    int
	Status       string
	ProcessedAt  time.Time
}

// GetProcessedFile returns the ledger entry for a Drive file ID, or nil when
// the file has never been processed.
func (r *Repository) GetProcessedFile(driveFileID string) (*ProcessedFile, error) {
	query := `SELECT id, drive_file_id, original_name, COALESCE(renamed_to, ''), COALESCE(summary, ''), item_count, status, processed_at
		FROM processed_files WHERE drive_file_id = ?`
	row := r.db.QueryRow(query, driveFileID)

	var f ProcessedFile
	err := row.Scan(&f.ID, &f.DriveFileID, &f.OriginalName, &f.RenamedTo, &f.Summary, &f.ItemCount, &f.Status, &f.ProcessedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get processed file: %w", err)
	}
	return &f, nil
}

// InsertProcessedFile records a file as processed.
func (r *Repository) InsertProcessedFile(driveFileID, originalName, renamedTo, summary string, itemCount int, status string) error {
	query := `INSERT INTO processed_files (drive_file_id, original_name, renamed_to, summary, item_count, status)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, driveFileID, originalName, renamedTo, summary, itemCount, status)
	if err != nil {
		return fmt.Errorf("failed to insert processed file: %w", err)
	}
	return nil
}

// RecentProcessedFiles returns the most recently processed files, newest
// first, for dashboard summaries.
func (r *Repository) RecentProcessedFiles(limit int) ([]ProcessedFile, error) {
	query := `SELECT id, drive_file_id, original_name, COALESCE(renamed_to, ''), COALESCE(summary, ''), item_count, status, processed_at
		FROM processed_files ORDER BY processed_at DESC, id DESC LIMIT ?`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed files: %w", err)
	}
	defer rows.Close()

	var result []ProcessedFile
	for rows.Next() {
		var f ProcessedFile
		if err := rows.Scan(&f.ID, &f.DriveFileID, &f.OriginalName, &f.RenamedTo, &f.Summary, &f.ItemCount, &f.Status, &f.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan processed file: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// Run represents a row in the runs table.
type Run struct {
	ID             int64
	TriggerSource  string
	FilesProcessed int
	FilesSkipped   int
	FilesFailed    int
	StartedAt      time.Time
	FinishedAt     sql.NullTime
}

// StartRun records the start of a processing run and returns its ID.
func (r *Repository) StartRun(triggerSource string) (int64, error) {
	res, err := r.db.Exec(`INSERT INTO runs (trigger_source) VALUES (?)`, triggerSource)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

// FinishRun records a run's final counters.
func (r *Repository) FinishRun(runID int64, processed, skipped, failed int) error {
	query := `UPDATE runs SET files_processed = ?, files_skipped = ?, files_failed = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, processed, skipped, failed, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// GetLatestRun returns the most recent run, or nil when none exists.
func (r *Repository) GetLatestRun() (*Run, error) {
	query := `SELECT id, trigger_source, files_processed, files_skipped, files_failed, started_at, finished_at
		FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`
	row := r.db.QueryRow(query)

	var run Run
	err := row.Scan(&run.ID, &run.TriggerSource, &run.FilesProcessed, &run.FilesSkipped, &run.FilesFailed, &run.StartedAt, &run.FinishedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return &run, nil
}
