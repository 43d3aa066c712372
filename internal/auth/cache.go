// ABOUTME: Persisted single-slot session cache for the last-known admin identity
// ABOUTME: File-backed JSON slot; corruption is treated as absent, never an error

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// SessionCache is a single durable slot holding the last-known admin
// identity. Only SessionManager writes it; consumers read published state,
// never the cache directly.
type SessionCache interface {
	// Read returns the cached identity, or (nil, nil) when the slot is
	// empty. A corrupted slot is cleared and reported as empty.
	Read() (*AdminIdentity, error)
	// Write replaces the slot with the given identity.
	Write(identity *AdminIdentity) error
	// Clear empties the slot. Clearing an empty slot is not an error.
	Clear() error
}

// FileSessionCache stores the identity as a JSON file. The serialized form is
// the AdminIdentity projection; the password hash never reaches this file.
type FileSessionCache struct {
	path   string
	logger *slog.Logger
}

var _ SessionCache = (*FileSessionCache)(nil)

// NewFileSessionCache creates a cache backed by the given file path.
func NewFileSessionCache(path string) *FileSessionCache {
	return &FileSessionCache{
		path:   path,
		logger: slog.Default().With("component", "session-cache"),
	}
}

// Read loads the cached identity. A missing file means an empty slot. An
// unparseable or incomplete file is cleared and reported as empty rather
// than propagated, so a corrupted cache can never wedge startup.
func (c *FileSessionCache) Read() (*AdminIdentity, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session cache: %w", err)
	}

	var identity AdminIdentity
	if err := json.Unmarshal(data, &identity); err != nil || !identity.Valid() {
		c.logger.Warn("discarding corrupted session cache", "path", c.path)
		if err := c.Clear(); err != nil {
			c.logger.Error("failed to clear corrupted session cache", "error", err)
		}
		return nil, nil
	}

	return &identity, nil
}

// Write persists the identity to the slot with owner-only permissions.
func (c *FileSessionCache) Write(identity *AdminIdentity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encoding session cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("creating session cache directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("writing session cache: %w", err)
	}

	return nil
}

// Clear removes the slot file.
func (c *FileSessionCache) Clear() error {
	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing session cache: %w", err)
	}
	return nil
}
