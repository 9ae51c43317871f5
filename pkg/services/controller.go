package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/YungFritz/kyys-letters/pkg/blobs"
	"github.com/YungFritz/kyys-letters/pkg/config"
	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/integrations"
	"github.com/YungFritz/kyys-letters/pkg/kv"
	"github.com/YungFritz/kyys-letters/pkg/library"
	"github.com/YungFritz/kyys-letters/pkg/remote"
	"github.com/YungFritz/kyys-letters/pkg/server"
	"github.com/YungFritz/kyys-letters/pkg/sources"
	"github.com/YungFritz/kyys-letters/pkg/utils"
)

// Controller owns the one library store of the process and everything built
// around it.
type Controller struct {
	Config *config.Config
	Logger *slog.Logger
	Store  *library.Store
	Source sources.Source
	URLs   *blobs.ObjectURLs

	// Remote is the client of a remote kyys server, nil when no URL is
	// configured.
	Remote *utils.API

	kv      *kv.Adapter
	blobs   *blobs.Adapter
	bucket  remote.Bucket
	closers []io.Closer
}

func NewController(cfg *config.Config, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sub, err := openSubstrate(cfg.KV)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		Config: cfg,
		Logger: logger,
		Source: sources.NewMangaDex(cfg.MangaDexURL),
		URLs:   blobs.NewObjectURLs(cfg.Server.Origin),
		kv:     kv.NewAdapter(sub, cfg.KVQuota(), logger),
	}

	var blobStore library.BlobStore
	if !cfg.Blobs.Inline {
		c.blobs = blobs.NewAdapter(cfg.Blobs.Path,
			blobs.WithQuota(cfg.Blobs.Quota),
			blobs.WithObjectURLs(c.URLs),
			blobs.WithLogger(logger),
		)
		blobStore = c.blobs
	}

	quality := cfg.Images.Quality
	c.Store = library.New(c.kv, blobStore,
		library.WithLogger(logger),
		library.WithImageSettings(
			integrations.ImageSettings{MaxWidth: cfg.Images.CoverMaxWidth, MaxHeight: cfg.Images.CoverMaxHeight, Quality: quality, Format: "jpeg"},
			integrations.ImageSettings{MaxWidth: cfg.Images.PageMaxWidth, MaxHeight: cfg.Images.PageMaxHeight, Quality: quality, Format: "jpeg"},
		),
	)

	if cfg.Remote.URL != "" {
		c.Remote = utils.NewAPI(cfg.Remote.URL, utils.WithToken(cfg.Remote.Token))
	}
	return c, nil
}

func openSubstrate(cfg config.KVConfig) (kv.Substrate, error) {
	switch cfg.Backend {
	case "memory":
		return kv.NewMemory(), nil
	case "badger":
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create kv directory: %w", err)
		}
		return kv.NewBadger(cfg.Path)
	case "duckdb", "":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return kv.NewDuckDB(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown kv backend %q", cfg.Backend)
	}
}

// Bucket opens the configured remote bucket once.
func (c *Controller) Bucket(ctx context.Context) (remote.Bucket, error) {
	if c.bucket != nil {
		return c.bucket, nil
	}
	switch c.Config.Remote.Backend {
	case "gcs":
		if c.Config.Remote.Bucket == "" {
			return nil, errors.New("remote bucket name is not configured")
		}
		bucket, err := remote.NewGCSBucket(ctx, c.Config.Remote.Bucket)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, bucket)
		c.bucket = bucket
	case "dir", "":
		c.bucket = remote.NewDirBucket(c.Config.Remote.Dir, "")
	default:
		return nil, fmt.Errorf("unknown remote backend %q", c.Config.Remote.Backend)
	}
	return c.bucket, nil
}

// NewImporter returns an importer from the configured source into the store.
func (c *Controller) NewImporter(opts ...ImporterOption) *Importer {
	opts = append([]ImporterOption{WithImporterLogger(c.Logger)}, opts...)
	return NewImporter(c.Source, c.Store, utils.NewAPI(""), opts...)
}

// NewServer returns the HTTP server over the store and the remote bucket.
func (c *Controller) NewServer(ctx context.Context) (*server.Server, error) {
	bucket, err := c.Bucket(ctx)
	if err != nil {
		return nil, err
	}
	cfg := server.Config{Token: c.Config.Server.Token, RateLimit: c.Config.Server.RateLimit}
	return server.New(cfg, c.Store, bucket, c.URLs, c.Logger), nil
}

// ExportEPub compiles every chapter of the series into an EPub under the
// output directory.
func (c *Controller) ExportEPub(ctx context.Context, slug string) (string, error) {
	series, ok := c.Store.FindBySlug(slug)
	if !ok {
		return "", fmt.Errorf("failed to export %s: %w", slug, library.ErrSeriesNotFound)
	}
	builder := integrations.NewEPubBuilder(c.Config.OutputDir, c.Store)
	return builder.CreateEPub(ctx, series, series.Chapters)
}

// Publish uploads a self-contained snapshot of one series, through the
// remote server when one is configured and straight to the bucket otherwise.
func (c *Controller) Publish(ctx context.Context, slug string) (utils.SavedSeries, error) {
	series, ok := c.Store.FindBySlug(slug)
	if !ok {
		return utils.SavedSeries{}, fmt.Errorf("failed to publish %s: %w", slug, library.ErrSeriesNotFound)
	}
	snap, err := c.Store.SeriesSnapshot(ctx, series.ID)
	if err != nil {
		return utils.SavedSeries{}, err
	}
	if c.Remote != nil {
		return c.Remote.SaveSeries(ctx, slug, snap)
	}

	bucket, err := c.Bucket(ctx)
	if err != nil {
		return utils.SavedSeries{}, err
	}
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return utils.SavedSeries{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	obj, err := bucket.Put(ctx, remote.SeriesKey(slug), payload, "application/json; charset=utf-8", true)
	if err != nil {
		return utils.SavedSeries{}, err
	}
	return utils.SavedSeries{Key: obj.Key, URL: obj.URL}, nil
}

// ListPublished lists the published snapshots.
func (c *Controller) ListPublished(ctx context.Context) ([]utils.RemoteItem, error) {
	if c.Remote != nil {
		return c.Remote.ListSeries(ctx)
	}
	bucket, err := c.Bucket(ctx)
	if err != nil {
		return nil, err
	}
	objects, err := bucket.List(ctx, remote.SeriesPrefix)
	if err != nil {
		return nil, err
	}
	items := make([]utils.RemoteItem, len(objects))
	for i, obj := range objects {
		items[i] = utils.RemoteItem{Key: obj.Key, URL: obj.URL, Size: obj.Size, UploadedAt: obj.UploadedAt}
	}
	return items, nil
}

// Pull reads the snapshot stored under key and merges it into the library.
// It reports false when nothing is published there.
func (c *Controller) Pull(ctx context.Context, key string) (bool, error) {
	var snap data.Snapshot
	if c.Remote != nil {
		got, err := c.Remote.ReadSeries(ctx, key)
		if err != nil || got == nil {
			return false, err
		}
		snap = *got
	} else {
		bucket, err := c.Bucket(ctx)
		if err != nil {
			return false, err
		}
		payload, err := bucket.Get(ctx, key)
		if errors.Is(err, remote.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if err := json.Unmarshal(payload, &snap); err != nil {
			return false, fmt.Errorf("failed to decode snapshot: %w", err)
		}
	}
	if err := c.Store.Merge(snap); err != nil {
		return false, err
	}
	return true, nil
}

// Unpublish removes the snapshot published under slug.
func (c *Controller) Unpublish(ctx context.Context, slug string) error {
	if c.Remote != nil {
		return c.Remote.DeleteSeries(ctx, slug)
	}
	bucket, err := c.Bucket(ctx)
	if err != nil {
		return err
	}
	return bucket.Delete(ctx, remote.SeriesKey(slug))
}

// Close releases the stores and the remote bucket.
func (c *Controller) Close() error {
	var errs []error
	if c.blobs != nil {
		errs = append(errs, c.blobs.Close())
	}
	errs = append(errs, c.kv.Close())
	for _, closer := range c.closers {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}
