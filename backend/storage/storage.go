// Package storage keeps avatar objects and hands out time-limited URLs for
// them.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidKey     = errors.New("invalid object key")
	ErrInvalidToken   = errors.New("invalid or expired signed url")
)

// Bucket is a flat namespace of objects addressed by key.
type Bucket interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, keys ...string) error
}

// ValidKey rejects keys that could escape the bucket.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`) && !strings.Contains(key, "..")
}
