package remote

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

// DirBucket stores objects as files under a root directory. It stands in for
// a cloud bucket on a single machine and in tests.
type DirBucket struct {
	root    string
	baseURL string
}

// NewDirBucket returns a bucket rooted at root. Object URLs are built on
// baseURL, or are file:// URLs when it is empty.
func NewDirBucket(root, baseURL string) *DirBucket {
	return &DirBucket{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (b *DirBucket) path(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return filepath.Join(b.root, filepath.FromSlash(key)), nil
}

func (b *DirBucket) url(key, path string) string {
	if b.baseURL == "" {
		return "file://" + filepath.ToSlash(path)
	}
	return b.baseURL + "/" + key
}

func (b *DirBucket) Put(_ context.Context, key string, data []byte, _ string, _ bool) (Object, error) {
	path, err := b.path(key)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Object{}, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("failed to store %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Object{}, fmt.Errorf("failed to store %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to store %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Object{}, fmt.Errorf("failed to store %s: %w", key, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Object{}, err
	}
	return Object{Key: key, URL: b.url(key, path), Size: info.Size(), UploadedAt: info.ModTime()}, nil
}

func (b *DirBucket) Get(_ context.Context, key string) ([]byte, error) {
	path, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// List returns the objects whose key starts with prefix, sorted by key.
func (b *DirBucket) List(_ context.Context, prefix string) ([]Object, error) {
	objects := []Object{}
	err := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == b.root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, Object{Key: key, URL: b.url(key, path), Size: info.Size(), UploadedAt: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (b *DirBucket) Delete(_ context.Context, key string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
