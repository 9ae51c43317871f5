package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SeriesPrefix is the key prefix published snapshots live under.
const SeriesPrefix = "series/"

var ErrNotFound = errors.New("remote: object not found")

// ErrInvalidKey is returned for empty, absolute or dot-segment keys.
var ErrInvalidKey = errors.New("remote: invalid key")

// Object describes a stored object.
type Object struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Bucket is a flat object store keyed by slash-separated names.
type Bucket interface {
	Put(ctx context.Context, key string, data []byte, contentType string, public bool) (Object, error)
	// Get returns ErrNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	// Delete ignores missing keys.
	Delete(ctx context.Context, key string) error
}

// SeriesKey is the object name a series snapshot is published under.
func SeriesKey(slug string) string {
	return SeriesPrefix + slug + ".json"
}

func checkKey(key string) error {
	if !validKey(key) {
		return fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	return nil
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
