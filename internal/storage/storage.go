package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
)

var (
	ErrNotFound = errors.New("object not found")
	ErrReadOnly = errors.New("storage is read-only")
)

type Storage interface {
	// Put stores data with the given key and returns where it was stored
	Put(ctx context.Context, key string, data []byte) (string, error)
	// Get retrieves the data stored under key
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// List returns the keys starting with prefix in lexical order
	List(ctx context.Context, prefix string) ([]string, error)
}

// Config selects and configures a backend by Kind ("file", "s3", "http" or
// "memory").
type Config struct {
	Kind string
	File FileConfig
	S3   S3Config
	HTTP HTTPConfig
}

// ConfigFromEnv reads STORAGE, DIRECTORY, S3_BUCKET, S3_ENDPOINT_URL and
// BASELINE_URL, falling back to directory for file storage.
func ConfigFromEnv(directory string) Config {
	c := Config{
		Kind: os.Getenv("STORAGE"),
		File: FileConfig{Directory: directory},
		S3: S3Config{
			Bucket:      os.Getenv("S3_BUCKET"),
			EndpointURL: os.Getenv("S3_ENDPOINT_URL"),
		},
		HTTP: HTTPConfig{BaseURL: os.Getenv("BASELINE_URL")},
	}
	if v, ok := os.LookupEnv("DIRECTORY"); ok {
		c.File.Directory = v
	}
	if c.Kind == "" {
		c.Kind = "file"
	}
	return c
}

func New(ctx context.Context, c Config) (Storage, error) {
	switch c.Kind {
	case "file":
		return NewFileStorage(ctx, c.File)
	case "s3":
		return NewS3Storage(ctx, c.S3)
	case "http":
		return NewHTTPStorage(ctx, c.HTTP)
	case "memory":
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage kind: %s", c.Kind)
	}
}
