// Package drive wraps the Google Drive API for both roles it plays here:
// the inbox/archive file queue and the markdown vault backing store.
package drive

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/akastas/screenshot-processor/pkg/config"
	"github.com/akastas/screenshot-processor/pkg/vault"
)

const folderMimeType = "application/vnd.google-apps.folder"

// InboxFile is metadata about a file waiting in the inbox folder.
type InboxFile struct {
	ID         string
	Name       string
	MimeType   string
	ModifiedAt time.Time
	Size       int64
}

// IsImage reports whether the file is a supported screenshot format.
func (f InboxFile) IsImage() bool {
	return config.ImageExtensions[f.Ext()]
}

// IsText reports whether the file is a supported text note format.
func (f InboxFile) IsText() bool {
	return config.TextExtensions[f.Ext()]
}

// Ext returns the lowercase file extension without the leading dot.
func (f InboxFile) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
}

// Service wraps the Google Drive API.
type Service struct {
	srv *gdrive.Service
}

// NewService creates a Drive service using service account credentials.
func NewService(ctx context.Context, credentialsFile string) (*Service, error) {
	srv, err := gdrive.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Service{srv: srv}, nil
}

var _ vault.Store = (*Service)(nil)

// ListInboxFiles returns supported files in the inbox folder, oldest first.
func (s *Service) ListInboxFiles(ctx context.Context, folderID string) ([]InboxFile, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)
	var result []InboxFile

	pageToken := ""
	for {
		call := s.srv.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType, modifiedTime, size)").
			OrderBy("modifiedTime").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list inbox files: %w", err)
		}

		for _, f := range resp.Files {
			modTime, _ := time.Parse(time.RFC3339, f.ModifiedTime)
			file := InboxFile{
				ID:         f.Id,
				Name:       f.Name,
				MimeType:   f.MimeType,
				ModifiedAt: modTime,
				Size:       f.Size,
			}
			if file.IsImage() || file.IsText() {
				result = append(result, file)
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return result, nil
}

// DownloadFile downloads a file's content by its ID.
func (s *Service) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := s.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file body: %w", err)
	}
	return data, nil
}

// RenameFile changes a file's display name.
func (s *Service) RenameFile(ctx context.Context, fileID, newName string) error {
	_, err := s.srv.Files.Update(fileID, &gdrive.File{Name: newName}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

// MoveFile reparents a file from one folder to another.
func (s *Service) MoveFile(ctx context.Context, fileID, fromFolderID, toFolderID string) error {
	_, err := s.srv.Files.Update(fileID, nil).
		AddParents(toFolderID).
		RemoveParents(fromFolderID).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("move file: %w", err)
	}
	return nil
}

// ListMarkdownFiles returns the markdown files directly inside a folder.
func (s *Service) ListMarkdownFiles(ctx context.Context, folderID string) ([]vault.FileInfo, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false and mimeType != '%s'", folderID, folderMimeType)
	var result []vault.FileInfo

	pageToken := ""
	for {
		call := s.srv.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType)").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list folder files: %w", err)
		}
		for _, f := range resp.Files {
			if !strings.HasSuffix(strings.ToLower(f.Name), ".md") {
				continue
			}
			result = append(result, vault.FileInfo{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return result, nil
}

// FindFileByName looks up a file by exact name inside a folder. Returns nil
// when no such file exists.
func (s *Service) FindFileByName(ctx context.Context, name, folderID string) (*vault.FileInfo, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(name), folderID)
	resp, err := s.srv.Files.List().
		Q(query).
		Fields("files(id, name, mimeType)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("find file %s: %w", name, err)
	}
	if len(resp.Files) == 0 {
		return nil, nil
	}
	f := resp.Files[0]
	return &vault.FileInfo{ID: f.Id, Name: f.Name, MimeType: f.MimeType}, nil
}

// FindFolder looks up a subfolder by name. Returns "" when absent.
func (s *Service) FindFolder(ctx context.Context, name, parentID string) (string, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		escapeQuery(name), parentID, folderMimeType)
	resp, err := s.srv.Files.List().
		Q(query).
		Fields("files(id)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("find folder %s: %w", name, err)
	}
	if len(resp.Files) == 0 {
		return "", nil
	}
	return resp.Files[0].Id, nil
}

// ReadFile downloads a vault file's content as text.
func (s *Service) ReadFile(ctx context.Context, fileID string) (string, error) {
	data, err := s.DownloadFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// OverwriteFile replaces a file's content in place.
func (s *Service) OverwriteFile(ctx context.Context, fileID, content string) error {
	_, err := s.srv.Files.Update(fileID, nil).
		Media(strings.NewReader(content)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("overwrite file: %w", err)
	}
	return nil
}

// CreateFile creates a markdown file inside a folder and returns its ID.
func (s *Service) CreateFile(ctx context.Context, folderID, name, content string) (string, error) {
	file := &gdrive.File{
		Name:     name,
		Parents:  []string{folderID},
		MimeType: "text/markdown",
	}
	created, err := s.srv.Files.Create(file).
		Media(strings.NewReader(content)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", name, err)
	}
	return created.Id, nil
}

// CreateFolder creates a subfolder and returns its ID.
func (s *Service) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	folder := &gdrive.File{
		Name:     name,
		Parents:  []string{parentID},
		MimeType: folderMimeType,
	}
	created, err := s.srv.Files.Create(folder).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create folder %s: %w", name, err)
	}
	return created.Id, nil
}

// escapeQuery escapes single quotes for embedding names in Drive queries.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}
