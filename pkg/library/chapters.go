package library

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/data"
)

// NewChapter holds the caller-supplied fields of a chapter being created.
type NewChapter struct {
	Name        string
	Number      float64
	Lang        string
	ReleaseDate string
	Pages       []data.ImageRef
}

// ListChapters returns every stored chapter, including ones whose series no
// longer exists.
func (s *Store) ListChapters() []data.Chapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, chapters := s.load()
	if chapters == nil {
		return []data.Chapter{}
	}
	return chapters
}

// ChaptersOf returns the chapters of one series sorted by number.
func (s *Store) ChaptersOf(seriesID string) []data.Chapter {
	out := []data.Chapter{}
	for _, c := range s.ListChapters() {
		if c.SeriesID == seriesID {
			out = append(out, c)
		}
	}
	return sortByNumber(out)
}

// GetChapter returns the chapter with the given id.
func (s *Store) GetChapter(id string) (data.Chapter, bool) {
	for _, c := range s.ListChapters() {
		if c.ID == id {
			return c, true
		}
	}
	return data.Chapter{}, false
}

// AddChapter appends a chapter to an existing series and keeps that series'
// chapters sorted by number. Chapters sharing a number stay in insertion
// order.
func (s *Store) AddChapter(seriesID string, nc NewChapter) (data.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	series, chapters := s.load()
	if indexOfSeries(series, seriesID) < 0 {
		return data.Chapter{}, fmt.Errorf("failed to add chapter to %s: %w", seriesID, ErrSeriesNotFound)
	}

	chapter := data.Chapter{
		ID:          newID("chap"),
		SeriesID:    seriesID,
		Name:        strings.TrimSpace(nc.Name),
		Number:      nc.Number,
		Lang:        strings.TrimSpace(nc.Lang),
		ReleaseDate: nc.ReleaseDate,
		Pages:       nc.Pages,
	}
	if chapter.Lang == "" {
		chapter.Lang = data.DefaultLang
	}
	if chapter.ReleaseDate == "" {
		chapter.ReleaseDate = s.today()
	}
	if chapter.Pages == nil {
		chapter.Pages = []data.ImageRef{}
	}

	chapters = append(chapters, chapter)
	resortSeries(chapters, seriesID)
	if err := s.saveChapters(chapters); err != nil {
		return data.Chapter{}, fmt.Errorf("failed to save chapter: %w", err)
	}
	return chapter, nil
}

// UpdateChapter replaces the stored chapter with the same id.
func (s *Store) UpdateChapter(chapter data.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, chapters := s.load()
	i := indexOfChapter(chapters, chapter.ID)
	if i < 0 {
		return fmt.Errorf("failed to update %s: %w", chapter.ID, ErrChapterNotFound)
	}
	if chapter.SeriesID == "" {
		chapter.SeriesID = chapters[i].SeriesID
	}
	if chapter.Lang == "" {
		chapter.Lang = data.DefaultLang
	}
	if chapter.Pages == nil {
		chapter.Pages = []data.ImageRef{}
	}
	chapters[i] = chapter
	resortSeries(chapters, chapter.SeriesID)
	if err := s.saveChapters(chapters); err != nil {
		return fmt.Errorf("failed to save chapter: %w", err)
	}
	return nil
}

// DeleteChapter removes a chapter and, best-effort, its stored pages.
// Unknown ids are ignored.
func (s *Store) DeleteChapter(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, chapters := s.load()
	i := indexOfChapter(chapters, id)
	if i < 0 {
		return nil
	}
	removed := chapters[i]
	chapters = append(chapters[:i], chapters[i+1:]...)
	if err := s.saveChapters(chapters); err != nil {
		return fmt.Errorf("failed to delete chapter %s: %w", id, err)
	}

	if s.blobs != nil {
		if _, err := s.blobs.DeletePrefix(ctx, pagePrefix(removed.SeriesID, removed.ID)); err != nil {
			s.logger.Warn("failed to delete pages", "chapter", id, "err", err)
		}
	}
	return nil
}

// resortSeries stable-sorts the chapters of seriesID in place, leaving the
// positions of other series' chapters untouched.
func resortSeries(chapters []data.Chapter, seriesID string) {
	var idx []int
	var group []data.Chapter
	for i, c := range chapters {
		if c.SeriesID == seriesID {
			idx = append(idx, i)
			group = append(group, c)
		}
	}
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].Number < group[j].Number
	})
	for k, i := range idx {
		chapters[i] = group[k]
	}
}
