package library

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/YungFritz/kyys-letters/pkg/blobs"
	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/integrations"
	"github.com/YungFritz/kyys-letters/pkg/kv"
	"github.com/google/uuid"
)

var (
	ErrSeriesNotFound     = errors.New("library: series not found")
	ErrChapterNotFound    = errors.New("library: chapter not found")
	ErrSlugTaken          = errors.New("library: slug already taken")
	ErrAccountExists      = errors.New("library: account already exists")
	ErrInvalidCredentials = errors.New("library: invalid credentials")
)

// BlobStore is the part of the blob adapter the store needs.
type BlobStore interface {
	Put(ctx context.Context, id string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, id string) (*blobs.Blob, error)
	Delete(ctx context.Context, id string) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
	DisplayURL(ctx context.Context, id string) (string, error)
}

// Store is the catalog: series and chapter metadata on the key-value adapter,
// image payloads on the blob store. A nil blob store embeds images inline.
type Store struct {
	kv     *kv.Adapter
	blobs  BlobStore
	logger *slog.Logger
	covers *integrations.ImageProcessor
	pages  *integrations.ImageProcessor
	now    func() time.Time

	passwordCost int

	mu sync.Mutex
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithImageSettings overrides the bounds applied to covers and pages.
func WithImageSettings(cover, page integrations.ImageSettings) Option {
	return func(s *Store) {
		s.covers = integrations.NewImageProcessor(cover)
		s.pages = integrations.NewImageProcessor(page)
	}
}

// WithClock replaces time.Now for creation stamps and default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New builds a Store over the given adapters. Records found under the legacy
// single-key layout are migrated to the per-kind keys.
func New(kvAdapter *kv.Adapter, blobStore BlobStore, opts ...Option) *Store {
	s := &Store{
		kv:     kvAdapter,
		blobs:  blobStore,
		covers: integrations.NewImageProcessor(integrations.DefaultCoverSettings()),
		pages:  integrations.NewImageProcessor(integrations.DefaultPageSettings()),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.migrateLegacy()
	return s
}

// InlineImages reports whether images are embedded as data URLs.
func (s *Store) InlineImages() bool {
	return s.blobs == nil
}

func (s *Store) migrateLegacy() {
	if _, ok := s.kv.ReadRaw(kv.KeyLegacyLibrary); !ok {
		return
	}
	series, chapters := s.load()
	if err := s.saveSeries(series); err != nil {
		s.logger.Warn("legacy library left in place", "err", err)
		return
	}
	if err := s.saveChapters(chapters); err != nil {
		s.logger.Warn("legacy library left in place", "err", err)
		return
	}
	if err := s.kv.Remove(kv.KeyLegacyLibrary); err != nil {
		s.logger.Warn("failed to drop legacy library", "err", err)
		return
	}
	s.logger.Info("migrated legacy library", "series", len(series), "chapters", len(chapters))
}

// load reads and normalizes both collections. Series lacking a slug get one
// derived from their title.
func (s *Store) load() ([]data.Series, []data.Chapter) {
	var (
		series   []data.Series
		chapters []data.Chapter
	)
	if raw, ok := s.kv.ReadRaw(kv.KeySeries); ok {
		series, chapters = data.NormalizeSeries([]byte(raw))
	}
	if raw, ok := s.kv.ReadRaw(kv.KeyChapters); ok {
		chapters = mergeChapters(data.NormalizeChapters([]byte(raw)), chapters)
	}
	if raw, ok := s.kv.ReadRaw(kv.KeyLegacyLibrary); ok {
		legacySeries, legacyChapters := data.NormalizeSeries([]byte(raw))
		series = mergeSeries(series, legacySeries)
		chapters = mergeChapters(chapters, legacyChapters)
	}
	for i := range series {
		if series[i].Slug == "" {
			series[i].Slug = Slugify(series[i].Title)
		}
		if series[i].Tags == nil {
			series[i].Tags = []string{}
		}
	}
	return series, chapters
}

func mergeSeries(into, extra []data.Series) []data.Series {
	seen := make(map[string]bool, len(into))
	for _, s := range into {
		seen[s.ID] = true
	}
	for _, s := range extra {
		if !seen[s.ID] {
			into = append(into, s)
			seen[s.ID] = true
		}
	}
	return into
}

func mergeChapters(into, extra []data.Chapter) []data.Chapter {
	seen := make(map[string]bool, len(into))
	for _, c := range into {
		seen[c.ID] = true
	}
	for _, c := range extra {
		if !seen[c.ID] {
			into = append(into, c)
			seen[c.ID] = true
		}
	}
	return into
}

func (s *Store) saveSeries(series []data.Series) error {
	stored := make([]data.Series, len(series))
	for i, item := range series {
		item.Chapters = nil
		stored[i] = item
	}
	return s.kv.Write(kv.KeySeries, stored)
}

func (s *Store) saveChapters(chapters []data.Chapter) error {
	if chapters == nil {
		chapters = []data.Chapter{}
	}
	return s.kv.Write(kv.KeyChapters, chapters)
}

// hydrate attaches each series' chapters, sorted by number.
func hydrate(series []data.Series, chapters []data.Chapter) []data.Series {
	bySeries := make(map[string][]data.Chapter)
	for _, c := range chapters {
		bySeries[c.SeriesID] = append(bySeries[c.SeriesID], c)
	}
	out := make([]data.Series, len(series))
	for i, item := range series {
		item.Chapters = sortByNumber(bySeries[item.ID])
		if item.Chapters == nil {
			item.Chapters = []data.Chapter{}
		}
		out[i] = item
	}
	return out
}

// sortByNumber orders chapters ascending. Equal numbers keep their stored
// order.
func sortByNumber(chapters []data.Chapter) []data.Chapter {
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Number < chapters[j].Number
	})
	return chapters
}

func indexOfSeries(series []data.Series, id string) int {
	for i, item := range series {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func indexOfChapter(chapters []data.Chapter, id string) int {
	for i, c := range chapters {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// newID returns prefix_ followed by a short random token.
func newID(prefix string) string {
	return prefix + "_" + token(7)
}

func token(n int) string {
	t := strings.ReplaceAll(uuid.NewString(), "-", "")
	return t[:n]
}

func (s *Store) today() string {
	return s.now().UTC().Format(time.DateOnly)
}
