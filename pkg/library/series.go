package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/kv"
)

// NewSeries holds the caller-supplied fields of a series being created.
type NewSeries struct {
	Title       string
	Slug        string
	Tags        []string
	Description string
	Cover       data.ImageRef
	Views       int
	Hot         bool
}

type addOptions struct {
	suffix bool
}

type AddOption func(*addOptions)

// WithSlugSuffix resolves a slug collision by appending a random token
// instead of failing with ErrSlugTaken.
func WithSlugSuffix() AddOption {
	return func(o *addOptions) { o.suffix = true }
}

// ListSeries returns every series with its chapters attached.
func (s *Store) ListSeries() []data.Series {
	s.mu.Lock()
	defer s.mu.Unlock()
	series, chapters := s.load()
	return hydrate(series, chapters)
}

// GetSeries returns the series with the given id.
func (s *Store) GetSeries(id string) (data.Series, bool) {
	for _, item := range s.ListSeries() {
		if item.ID == id {
			return item, true
		}
	}
	return data.Series{}, false
}

// FindBySlug returns the first series whose slug matches.
func (s *Store) FindBySlug(slug string) (data.Series, bool) {
	for _, item := range s.ListSeries() {
		if item.Slug == slug {
			return item, true
		}
	}
	return data.Series{}, false
}

func (s *Store) SlugExists(slug string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	series, _ := s.load()
	return slugTaken(series, slug)
}

func slugTaken(series []data.Series, slug string) bool {
	for _, item := range series {
		if item.Slug == slug {
			return true
		}
	}
	return false
}

// UpsertSeries replaces the series with the same id or appends it. Chapters
// attached to series are ignored; they are stored separately.
func (s *Store) UpsertSeries(series data.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if series.ID == "" {
		series.ID = newID("serie")
	}
	if series.Slug == "" {
		series.Slug = Slugify(series.Title)
	}
	if series.Tags == nil {
		series.Tags = []string{}
	}
	series.Chapters = nil

	all, _ := s.load()
	if i := indexOfSeries(all, series.ID); i >= 0 {
		all[i] = series
	} else {
		all = append(all, series)
	}
	if err := s.saveSeries(all); err != nil {
		return fmt.Errorf("failed to save series: %w", err)
	}
	return nil
}

// AddSeries creates a series from ns. The slug comes from ns.Slug when set,
// otherwise from the title.
func (s *Store) AddSeries(ns NewSeries, opts ...AddOption) (data.Series, error) {
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	title := strings.TrimSpace(ns.Title)
	base := Slugify(title)
	if ns.Slug != "" {
		base = Slugify(ns.Slug)
	}

	all, _ := s.load()
	slug := base
	if slugTaken(all, slug) {
		if !o.suffix {
			return data.Series{}, fmt.Errorf("failed to add %q: %w", slug, ErrSlugTaken)
		}
		for slugTaken(all, slug) {
			slug = base + "-" + token(4)
		}
	}

	tags := ns.Tags
	if tags == nil {
		tags = []string{}
	}
	series := data.Series{
		ID:          newID("serie"),
		Title:       title,
		Slug:        slug,
		Tags:        tags,
		Description: ns.Description,
		Cover:       ns.Cover,
		Views:       ns.Views,
		Hot:         ns.Hot,
		CreatedAt:   s.now().UnixMilli(),
	}
	if err := s.saveSeries(append(all, series)); err != nil {
		return data.Series{}, fmt.Errorf("failed to save series: %w", err)
	}
	series.Chapters = []data.Chapter{}
	return series, nil
}

// DeleteSeries removes the series and every chapter pointing at it. If the
// chapter write fails the series list is restored and the chapter write
// error is returned. Stored images are removed afterwards on a best-effort
// basis.
func (s *Store) DeleteSeries(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	series, chapters := s.load()
	prevSeries, hadSeries := s.kv.ReadRaw(kv.KeySeries)

	keptSeries := make([]data.Series, 0, len(series))
	for _, item := range series {
		if item.ID != id {
			keptSeries = append(keptSeries, item)
		}
	}
	keptChapters := make([]data.Chapter, 0, len(chapters))
	for _, c := range chapters {
		if c.SeriesID != id {
			keptChapters = append(keptChapters, c)
		}
	}
	if len(keptSeries) == len(series) && len(keptChapters) == len(chapters) {
		return nil
	}

	if err := s.saveSeries(keptSeries); err != nil {
		return fmt.Errorf("failed to delete series %s: %w", id, err)
	}
	if err := s.saveChapters(keptChapters); err != nil {
		s.restore(kv.KeySeries, prevSeries, hadSeries)
		return fmt.Errorf("failed to delete chapters of %s: %w", id, err)
	}

	s.dropSeriesImages(ctx, id)
	return nil
}

func (s *Store) restore(key, raw string, existed bool) {
	var err error
	if existed {
		err = s.kv.WriteRaw(key, raw)
	} else {
		err = s.kv.Remove(key)
	}
	if err != nil {
		s.logger.Error("failed to roll back", "key", key, "err", err)
	}
}

func (s *Store) dropSeriesImages(ctx context.Context, id string) {
	if s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, coverKey(id)); err != nil {
		s.logger.Warn("failed to delete cover", "series", id, "err", err)
	}
	n, err := s.blobs.DeletePrefix(ctx, id+":")
	if err != nil {
		s.logger.Warn("failed to delete pages", "series", id, "err", err)
		return
	}
	s.logger.Debug("deleted pages", "series", id, "count", n)
}
