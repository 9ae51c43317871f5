package library

import (
	"context"
	"fmt"
	"io"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/integrations"
	"github.com/vincent-petithory/dataurl"
)

// IngestResult reports how far a page batch got. Err is set when the batch
// stopped early; Refs holds the pages that were kept.
type IngestResult struct {
	Refs      []data.ImageRef
	Stored    int
	Requested int
	Err       error
}

// Partial reports whether some but not all pages were stored.
func (r IngestResult) Partial() bool {
	return r.Stored > 0 && r.Stored < r.Requested
}

func coverKey(seriesID string) string {
	return "cover:" + seriesID
}

func pagePrefix(seriesID, chapterID string) string {
	return seriesID + ":" + chapterID + ":"
}

func pageKey(seriesID, chapterID string, index int) string {
	return fmt.Sprintf("%s%d", pagePrefix(seriesID, chapterID), index)
}

// StoreCover downsizes the image read from r and sets it as the cover of the
// series.
func (s *Store) StoreCover(ctx context.Context, seriesID string, r io.Reader) (data.ImageRef, error) {
	img, err := s.covers.Process(r)
	if err != nil {
		return "", fmt.Errorf("failed to process cover: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	series, _ := s.load()
	i := indexOfSeries(series, seriesID)
	if i < 0 {
		return "", fmt.Errorf("failed to store cover for %s: %w", seriesID, ErrSeriesNotFound)
	}

	ref, err := s.putImage(ctx, coverKey(seriesID), img)
	if err != nil {
		return "", fmt.Errorf("failed to store cover: %w", err)
	}
	series[i].Cover = ref
	if err := s.saveSeries(series); err != nil {
		return "", fmt.Errorf("failed to save series: %w", err)
	}
	return ref, nil
}

// StorePages downsizes each page and appends it to the chapter. The batch
// stops at the first failure; pages stored before it stay on the chapter.
func (s *Store) StorePages(ctx context.Context, seriesID, chapterID string, pages []io.Reader) IngestResult {
	result := IngestResult{Requested: len(pages)}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, chapters := s.load()
	ci := indexOfChapter(chapters, chapterID)
	if ci < 0 || chapters[ci].SeriesID != seriesID {
		result.Err = fmt.Errorf("failed to store pages for %s: %w", chapterID, ErrChapterNotFound)
		return result
	}
	base := len(chapters[ci].Pages)

	for i, r := range pages {
		if err := ctx.Err(); err != nil {
			result.Err = err
			break
		}
		img, err := s.pages.Process(r)
		if err != nil {
			result.Err = fmt.Errorf("failed to process page %d: %w", i+1, err)
			break
		}
		key := pageKey(seriesID, chapterID, base+i)
		ref, err := s.putImage(ctx, key, img)
		if err != nil {
			result.Err = fmt.Errorf("failed to store page %d: %w", i+1, err)
			break
		}

		// Each page is its own chapter write so a quota hit keeps the pages
		// already saved.
		chapters[ci].Pages = append(chapters[ci].Pages, ref)
		if err := s.saveChapters(chapters); err != nil {
			chapters[ci].Pages = chapters[ci].Pages[:len(chapters[ci].Pages)-1]
			if !s.InlineImages() {
				if derr := s.blobs.Delete(ctx, key); derr != nil {
					s.logger.Warn("failed to drop unsaved page", "key", key, "err", derr)
				}
			}
			result.Err = fmt.Errorf("failed to save page %d: %w", i+1, err)
			break
		}
		result.Refs = append(result.Refs, ref)
	}

	result.Stored = len(result.Refs)
	if result.Err != nil {
		s.logger.Warn("page ingestion stopped", "chapter", chapterID, "stored", result.Stored, "requested", result.Requested, "err", result.Err)
	}
	return result
}

func (s *Store) putImage(ctx context.Context, key string, img integrations.ProcessedImage) (data.ImageRef, error) {
	if s.InlineImages() {
		return data.ImageRef(dataurl.New(img.Data, img.ContentType).String()), nil
	}
	if _, err := s.blobs.Put(ctx, key, img.Data, img.ContentType); err != nil {
		return "", err
	}
	return data.BlobRef(key), nil
}

// OpenImage returns the bytes behind ref. Missing blobs yield nil.
func (s *Store) OpenImage(ctx context.Context, ref data.ImageRef) ([]byte, string, error) {
	if ref.IsInline() {
		u, err := dataurl.DecodeString(string(ref))
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode inline image: %w", err)
		}
		return u.Data, u.ContentType(), nil
	}
	key, ok := ref.BlobKey()
	if !ok || s.blobs == nil {
		return nil, "", nil
	}
	b, err := s.blobs.Get(ctx, key)
	if err != nil || b == nil {
		return nil, "", err
	}
	return b.Data, b.ContentType, nil
}

// DisplayURL returns a URL usable as an image source for ref, or "" when
// nothing is stored behind it. Inline refs are already usable as-is.
func (s *Store) DisplayURL(ctx context.Context, ref data.ImageRef) (string, error) {
	if ref.IsInline() {
		return string(ref), nil
	}
	key, ok := ref.BlobKey()
	if !ok || s.blobs == nil {
		return "", nil
	}
	return s.blobs.DisplayURL(ctx, key)
}
