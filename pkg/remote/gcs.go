package remote

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const publicURL = "https://storage.googleapis.com/%s/%s"

// GCSBucket stores objects in a Google Cloud Storage bucket.
type GCSBucket struct {
	client *storage.Client
	name   string
}

// NewGCSBucket connects to the named bucket using application default
// credentials unless opts say otherwise.
func NewGCSBucket(ctx context.Context, name string, opts ...option.ClientOption) (*GCSBucket, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSBucket{client: client, name: name}, nil
}

func (b *GCSBucket) bucket() *storage.BucketHandle {
	return b.client.Bucket(b.name)
}

func (b *GCSBucket) Put(ctx context.Context, key string, data []byte, contentType string, public bool) (Object, error) {
	if err := checkKey(key); err != nil {
		return Object{}, err
	}
	w := b.bucket().Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "no-cache"
	if public {
		w.ACL = []storage.ACLRule{{Entity: storage.AllUsers, Role: storage.RoleReader}}
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return Object{}, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	attrs := w.Attrs()
	return Object{
		Key:        key,
		URL:        fmt.Sprintf(publicURL, b.name, key),
		Size:       attrs.Size,
		UploadedAt: attrs.Updated,
	}, nil
}

func (b *GCSBucket) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	r, err := b.bucket().Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (b *GCSBucket) List(ctx context.Context, prefix string) ([]Object, error) {
	objects := []Object{}
	it := b.bucket().Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
		}
		objects = append(objects, Object{
			Key:        attrs.Name,
			URL:        fmt.Sprintf(publicURL, b.name, attrs.Name),
			Size:       attrs.Size,
			UploadedAt: attrs.Updated,
		})
	}
	return objects, nil
}

func (b *GCSBucket) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := b.bucket().Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (b *GCSBucket) Close() error {
	return b.client.Close()
}
