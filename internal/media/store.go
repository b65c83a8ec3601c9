// Package media stores uploaded files such as damage report images.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Driver names a storage backend.
type Driver string

// Supported drivers
const (
	DriverFS     Driver = "fs"
	DriverS3     Driver = "s3"
	DriverMemory Driver = "memory"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("media not found")

// Store is a flat key/value store for files.
type Store interface {
	Driver() Driver
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Get returns the content of key and its content type. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// Config selects and configures a driver.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open creates the store named by cfg.Driver. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFS:
		return NewFSStore(cfg.FSRoot)
	case DriverS3:
		return NewS3Store(ctx, cfg.S3)
	case DriverMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown media driver %q", cfg.Driver)
}

// CleanKey rejects keys that are empty, absolute, or climb out of the store.
func CleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("empty media key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return path.Clean(key), nil
}
