package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
)

const tempFilePrefix = "portfolio-tmp-"

// FileCache stores the collection as a bare JSON array in one file.
type FileCache struct {
	path   string
	logger *zap.Logger
}

func NewFileCache(path string, logger *zap.Logger) *FileCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileCache{path: path, logger: logger}
}

func (c *FileCache) Name() string { return "file" }
func (c *FileCache) Path() string { return c.path }

// Read returns the last persisted snapshot. A missing file is an empty
// collection; so is a corrupt one, which is logged and left for the next
// Persist to overwrite.
func (c *FileCache) Read(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", c.path, err)
	}

	projects, err := decodeSnapshot(data)
	if err != nil {
		c.logger.Warn("local cache is corrupt, starting empty", zap.String("path", c.path), zap.Error(err))
		return domain.Snapshot{}, nil
	}
	return projects, nil
}

// Persist overwrites the file with the given snapshot.
func (c *FileCache) Persist(ctx context.Context, projects domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if projects == nil {
		projects = domain.Snapshot{}
	}

	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal projects: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	return writeFileAtomic(c.path, data, 0o644)
}

// decodeSnapshot accepts a bare array or the {"projects": [...]} document.
func decodeSnapshot(data []byte) (domain.Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return domain.Snapshot{}, nil
	}

	if trimmed[0] == '{' {
		var doc domain.Document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		if doc.Projects == nil {
			return domain.Snapshot{}, nil
		}
		return doc.Projects, nil
	}

	var projects domain.Snapshot
	if err := json.Unmarshal(trimmed, &projects); err != nil {
		return nil, err
	}
	if projects == nil {
		return domain.Snapshot{}, nil
	}
	return projects, nil
}

// writeFileAtomic writes to a temp file in the target directory and renames it
// over the destination.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)

	tmpFile, err := os.CreateTemp(dir, tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}

	return nil
}
