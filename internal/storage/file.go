package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type fileStorage struct {
	config FileConfig
}

type FileConfig struct {
	Directory string
}

// NewFileStorage creates a new file storage backend rooted at f.Directory
func NewFileStorage(ctx context.Context, f FileConfig) (Storage, error) {
	if f.Directory == "" {
		f.Directory = "."
	}

	return &fileStorage{
		config: f,
	}, nil
}

func (a *fileStorage) path(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key: %q", key)
	}
	return filepath.Join(a.config.Directory, cleaned), nil
}

func (a *fileStorage) Put(ctx context.Context, key string, data []byte) (string, error) {
	filePath, err := a.path(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}

func (a *fileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	filePath, err := a.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read file %s: %w", filePath, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

func (a *fileStorage) Delete(ctx context.Context, key string) error {
	filePath, err := a.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove file %s: %w", filePath, ErrNotFound)
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func (a *fileStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(a.config.Directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == a.config.Directory {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(a.config.Directory, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}
