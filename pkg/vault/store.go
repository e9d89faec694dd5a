// Package vault implements the routing and reconciliation core: deciding
// which vault file each extracted item belongs in and merging it into
// existing markdown without corrupting structure.
package vault

import (
	"context"
	"errors"
)

// ErrFolderNotFound is returned when a vault-relative folder path cannot be
// resolved.
var ErrFolderNotFound = errors.New("vault folder not found")

// ErrFileNotFound is returned when a file lookup comes up empty.
var ErrFileNotFound = errors.New("vault file not found")

// FileInfo is the minimal metadata the routing core needs about a stored file.
type FileInfo struct {
	ID       string
	Name     string
	MimeType string
}

// Store is the cloud-storage collaborator backing the vault. Implemented by
// the Drive service; tests use an in-memory fake.
type Store interface {
	// ListMarkdownFiles returns the .md files directly inside a folder.
	ListMarkdownFiles(ctx context.Context, folderID string) ([]FileInfo, error)
	// FindFileByName finds a file by exact name inside a folder. Returns
	// nil when absent.
	FindFileByName(ctx context.Context, name, folderID string) (*FileInfo, error)
	// FindFolder finds a folder by exact name inside a parent folder.
	// Returns "" when absent.
	FindFolder(ctx context.Context, name, parentID string) (string, error)
	// ReadFile returns a file's text content.
	ReadFile(ctx context.Context, fileID string) (string, error)
	// OverwriteFile replaces a file's content.
	OverwriteFile(ctx context.Context, fileID, content string) error
	// CreateFile creates a text file inside a folder and returns its ID.
	CreateFile(ctx context.Context, folderID, name, content string) (string, error)
	// CreateFolder creates a folder inside a parent and returns its ID.
	CreateFolder(ctx context.Context, parentID, name string) (string, error)
}

// TaskCreator is the task-manager collaborator as seen by the router.
type TaskCreator interface {
	CreateItemTask(ctx context.Context, item TaskSpec) error
}

// TaskSpec describes one task to create externally.
type TaskSpec struct {
	Title       string
	Description string
	Priority    string // high, medium, low
	DueDate     string // YYYY-MM-DD, optional
	ProjectHint string
	Tags        []string
}

// ReplyGenerator is the AI collaborator used for the booking second pass.
type ReplyGenerator interface {
	GenerateBookingReply(ctx context.Context, transcript string, questions []string, faqContent string) (string, error)
}
