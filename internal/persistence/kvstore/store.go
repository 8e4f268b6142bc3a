// Package kvstore holds save slots: small opaque blobs addressed by key.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

type Driver string

const (
	DriverMemory Driver = "memory" // tests
	DriverFS     Driver = "fs"     // one file per key (default)
	DriverSQLite Driver = "sqlite" // save_slots table with an audit trail
	DriverS3     Driver = "s3"     // S3 / R2 compatible bucket
)

var ErrNotFound = errors.New("kvstore: key not found")

// Store is a durable key-value store. Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, val []byte) error
	Delete(ctx context.Context, key string) error
	Driver() Driver
	Close() error
}

type Options struct {
	Driver Driver
	// Dir is the data directory for fs and sqlite.
	Dir string

	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string
}

// Open selects a Store implementation by driver.
func Open(opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverFS:
		return NewFS(filepath.Join(dirOrDefault(opts.Dir), "saves"))
	case DriverSQLite:
		return OpenSQLite(filepath.Join(dirOrDefault(opts.Dir), "saves.sqlite"))
	case DriverS3:
		return NewS3(opts.S3Endpoint, opts.S3Bucket, opts.S3AccessKey, opts.S3SecretKey, opts.S3Prefix)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

func dirOrDefault(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return "./data"
	}
	return dir
}

// checkKey rejects keys that could escape a directory or bucket prefix.
func checkKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("empty key")
	case strings.Contains(key, ".."):
		return fmt.Errorf("invalid key %q: contains '..'", key)
	case strings.ContainsAny(key, `/\`):
		return fmt.Errorf("invalid key %q: path separator", key)
	}
	return nil
}
