package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/library"
	"github.com/YungFritz/kyys-letters/pkg/sources"
)

// ImportProgress represents the progress of one chapter import
type ImportProgress struct {
	SeriesID      string
	ChapterID     string // source chapter id
	ChapterNumber float64
	CurrentPage   int
	TotalPages    int
	Status        string // "downloading", "storing", "complete", "error"
	Error         error
}

// ImportOptions narrows which chapters of a series are imported
type ImportOptions struct {
	Langs        []string
	ChapterRange string   // "from-to", inclusive
	ChapterIDs   []string // source chapter ids
}

// ImportReport summarises an ImportSeries run
type ImportReport struct {
	Series   data.Series
	Imported int
	Skipped  int
	Errors   []error
}

// Fetcher downloads an absolute URL
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Importer copies series from a catalog source into the library
type Importer struct {
	source       sources.Source
	store        *library.Store
	fetcher      Fetcher
	logger       *slog.Logger
	interval     time.Duration
	concurrency  int
	rateLimiter  *time.Ticker
	progressChan chan ImportProgress
	closeOnce    sync.Once
}

type ImporterOption func(*Importer)

// WithRateInterval sets the minimum delay between two source requests
func WithRateInterval(d time.Duration) ImporterOption {
	return func(im *Importer) { im.interval = d }
}

// WithConcurrency sets how many chapters are imported at once
func WithConcurrency(n int) ImporterOption {
	return func(im *Importer) { im.concurrency = n }
}

func WithImporterLogger(logger *slog.Logger) ImporterOption {
	return func(im *Importer) { im.logger = logger }
}

// NewImporter creates a new Importer instance
func NewImporter(source sources.Source, store *library.Store, fetcher Fetcher, opts ...ImporterOption) *Importer {
	im := &Importer{
		source:       source,
		store:        store,
		fetcher:      fetcher,
		interval:     500 * time.Millisecond, // 2 req/sec
		concurrency:  3,
		progressChan: make(chan ImportProgress, 100),
	}
	for _, opt := range opts {
		opt(im)
	}
	if im.logger == nil {
		im.logger = slog.Default()
	}
	if im.concurrency < 1 {
		im.concurrency = 1
	}
	im.rateLimiter = time.NewTicker(im.interval)
	return im
}

// Progress returns the channel for receiving import progress updates
func (im *Importer) Progress() <-chan ImportProgress {
	return im.progressChan
}

func (im *Importer) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-im.rateLimiter.C:
		return nil
	}
}

// ImportSeries imports a series and the chapters selected by opts. Chapters
// already in the library (same number and language) are skipped. Chapter
// failures are collected in the report; only failing to create the series
// is returned as an error.
func (im *Importer) ImportSeries(ctx context.Context, mangaID string, opts ImportOptions) (ImportReport, error) {
	if err := im.wait(ctx); err != nil {
		return ImportReport{}, err
	}
	manga, err := im.source.GetManga(ctx, mangaID)
	if err != nil {
		return ImportReport{}, fmt.Errorf("failed to get manga: %w", err)
	}
	series, err := im.ensureSeries(ctx, manga)
	if err != nil {
		return ImportReport{}, err
	}

	if err := im.wait(ctx); err != nil {
		return ImportReport{}, err
	}
	chapters, err := im.source.GetChapters(ctx, mangaID, opts.Langs)
	if err != nil {
		return ImportReport{}, fmt.Errorf("failed to get chapters: %w", err)
	}
	chapters = filterChapters(chapters, opts)

	existing := map[string]bool{}
	for _, c := range im.store.ChaptersOf(series.ID) {
		existing[chapterKey(c.Number, c.Lang)] = true
	}

	report := ImportReport{}
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, im.concurrency)
	)
	for _, chapter := range chapters {
		if existing[chapterKey(chapter.Chapter.Number, chapter.Chapter.Lang)] {
			report.Skipped++
			continue
		}
		existing[chapterKey(chapter.Chapter.Number, chapter.Chapter.Lang)] = true

		wg.Add(1)
		go func(chapter sources.Chapter) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			err := im.ImportChapter(ctx, series, chapter)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("chapter %s: %w", formatNumber(chapter.Chapter.Number), err))
				im.sendProgress(ImportProgress{
					SeriesID:      series.ID,
					ChapterID:     chapter.ID,
					ChapterNumber: chapter.Chapter.Number,
					Status:        "error",
					Error:         err,
				})
				return
			}
			report.Imported++
		}(chapter)
	}
	wg.Wait()

	report.Series, _ = im.store.GetSeries(series.ID)
	im.logger.Info("import finished", "series", series.Slug, "imported", report.Imported, "skipped", report.Skipped, "failed", len(report.Errors))
	return report, nil
}

// ensureSeries returns the library series matching manga, creating it with
// its cover when it does not exist yet.
func (im *Importer) ensureSeries(ctx context.Context, manga sources.Manga) (data.Series, error) {
	slug := library.Slugify(manga.Series.Title)
	if manga.Series.Slug != "" {
		slug = library.Slugify(manga.Series.Slug)
	}
	if series, ok := im.store.FindBySlug(slug); ok {
		return series, nil
	}

	series, err := im.store.AddSeries(manga.Series)
	if err != nil {
		return data.Series{}, fmt.Errorf("failed to save series: %w", err)
	}
	if manga.CoverURL == "" {
		return series, nil
	}

	// A missing cover does not fail the import.
	if err := im.wait(ctx); err != nil {
		return series, nil
	}
	content, _, err := im.fetcher.Fetch(ctx, manga.CoverURL)
	if err == nil {
		_, err = im.store.StoreCover(ctx, series.ID, bytes.NewReader(content))
	}
	if err != nil {
		im.logger.Warn("failed to import cover", "series", series.Slug, "err", err)
	}
	return series, nil
}

// ImportChapter downloads every page of a chapter, then adds the chapter to
// series with those pages. Nothing is written when a download fails.
func (im *Importer) ImportChapter(ctx context.Context, series data.Series, chapter sources.Chapter) error {
	if err := im.wait(ctx); err != nil {
		return err
	}

	progress := ImportProgress{
		SeriesID:      series.ID,
		ChapterID:     chapter.ID,
		ChapterNumber: chapter.Chapter.Number,
		Status:        "downloading",
	}
	im.sendProgress(progress)

	pages, err := im.source.GetPages(ctx, chapter.ID)
	if err != nil {
		return fmt.Errorf("failed to get pages: %w", err)
	}
	if len(pages) == 0 {
		return errors.New("no pages found for chapter")
	}
	progress.TotalPages = len(pages)

	readers := make([]io.Reader, 0, len(pages))
	for i, pageURL := range pages {
		progress.CurrentPage = i + 1
		im.sendProgress(progress)

		if err := im.wait(ctx); err != nil {
			return err
		}
		content, _, err := im.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return fmt.Errorf("failed to download page %d: %w", i, err)
		}
		readers = append(readers, bytes.NewReader(content))
	}

	progress.Status = "storing"
	im.sendProgress(progress)

	created, err := im.store.AddChapter(series.ID, chapter.Chapter)
	if err != nil {
		return fmt.Errorf("failed to save chapter: %w", err)
	}
	result := im.store.StorePages(ctx, series.ID, created.ID, readers)
	if result.Err != nil {
		return fmt.Errorf("stored %d of %d pages: %w", result.Stored, result.Requested, result.Err)
	}

	progress.Status = "complete"
	im.sendProgress(progress)
	return nil
}

// sendProgress sends a progress update (non-blocking)
func (im *Importer) sendProgress(progress ImportProgress) {
	select {
	case im.progressChan <- progress:
	default:
		// Channel full, skip this update
	}
}

// Close stops the rate limiter and closes the progress channel. It must not
// be called while an import is running.
func (im *Importer) Close() {
	im.closeOnce.Do(func() {
		im.rateLimiter.Stop()
		close(im.progressChan)
	})
}

func chapterKey(number float64, lang string) string {
	return formatNumber(number) + "/" + strings.ToUpper(lang)
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func filterChapters(chapters []sources.Chapter, opts ImportOptions) []sources.Chapter {
	var filtered []sources.Chapter
	for _, chapter := range chapters {
		if len(opts.Langs) > 0 && !containsFold(opts.Langs, chapter.Chapter.Lang) {
			continue
		}
		if len(opts.ChapterIDs) > 0 && !containsFold(opts.ChapterIDs, chapter.ID) {
			continue
		}
		filtered = append(filtered, chapter)
	}
	if opts.ChapterRange != "" {
		filtered = filterByRange(filtered, opts.ChapterRange)
	}
	return filtered
}

// filterByRange keeps chapters numbered within "from-to". A malformed range
// keeps everything.
func filterByRange(chapters []sources.Chapter, rangeStr string) []sources.Chapter {
	from, to, ok := strings.Cut(rangeStr, "-")
	if !ok {
		return chapters
	}
	start, err1 := strconv.ParseFloat(strings.TrimSpace(from), 64)
	end, err2 := strconv.ParseFloat(strings.TrimSpace(to), 64)
	if err1 != nil || err2 != nil {
		return chapters
	}

	var filtered []sources.Chapter
	for _, chapter := range chapters {
		if n := chapter.Chapter.Number; n >= start && n <= end {
			filtered = append(filtered, chapter)
		}
	}
	return filtered
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}
