package vault

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Resolver maps vault-relative slash paths to storage folder IDs, walking
// segment by segment from the vault root. Resolved IDs are cached for the
// lifetime of one Resolver, which callers scope to a single processing run.
type Resolver struct {
	store  Store
	rootID string

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates a resolver rooted at the vault root folder.
func NewResolver(store Store, rootID string) *Resolver {
	return &Resolver{
		store:  store,
		rootID: rootID,
		cache:  make(map[string]string),
	}
}

// ResolveFolder resolves a path like "2-Areas/Calendar" to a folder ID.
// Returns ErrFolderNotFound when any segment is missing; it never creates
// folders.
func (r *Resolver) ResolveFolder(ctx context.Context, path string) (string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return r.rootID, nil
	}

	r.mu.Lock()
	if id, ok := r.cache[path]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	current := r.rootID
	for _, part := range strings.Split(path, "/") {
		id, err := r.store.FindFolder(ctx, part, current)
		if err != nil {
			return "", fmt.Errorf("resolve folder %q: %w", part, err)
		}
		if id == "" {
			return "", fmt.Errorf("folder segment %q in %q: %w", part, path, ErrFolderNotFound)
		}
		current = id
	}

	r.mu.Lock()
	r.cache[path] = current
	r.mu.Unlock()
	return current, nil
}

// EnsureFolder resolves a path, creating missing segments. Only the booking
// bootstrap uses this; generic vault appends fail on missing folders instead.
func (r *Resolver) EnsureFolder(ctx context.Context, path string) (string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return r.rootID, nil
	}

	current := r.rootID
	for _, part := range strings.Split(path, "/") {
		id, err := r.store.FindFolder(ctx, part, current)
		if err != nil {
			return "", fmt.Errorf("resolve folder %q: %w", part, err)
		}
		if id == "" {
			id, err = r.store.CreateFolder(ctx, current, part)
			if err != nil {
				return "", fmt.Errorf("create folder %q: %w", part, err)
			}
		}
		current = id
	}

	r.mu.Lock()
	r.cache[path] = current
	r.mu.Unlock()
	return current, nil
}

// SplitPath splits a vault-relative file path into its folder path and
// filename.
func SplitPath(vaultPath string) (folder, filename string) {
	if idx := strings.LastIndex(vaultPath, "/"); idx >= 0 {
		return vaultPath[:idx], vaultPath[idx+1:]
	}
	return "", vaultPath
}
