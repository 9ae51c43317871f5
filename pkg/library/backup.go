package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/kv"
	"github.com/vincent-petithory/dataurl"
)

// Export writes the whole catalog as an indented snapshot.
func (s *Store) Export(w io.Writer) error {
	s.mu.Lock()
	series, chapters := s.load()
	members := s.members()
	s.mu.Unlock()

	for i := range series {
		series[i].Chapters = nil
	}
	if chapters == nil {
		chapters = []data.Chapter{}
	}
	snap := data.Snapshot{
		Version:  data.SchemaVersion,
		Series:   series,
		Chapters: chapters,
		Members:  members,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

type rawSnapshot struct {
	Version  int             `json:"version"`
	Series   json.RawMessage `json:"series"`
	Chapters json.RawMessage `json:"chapters"`
	Members  []data.Account  `json:"members"`
}

// Import replaces the collections present in the snapshot read from r.
// Series may carry their chapters inline, as older exports did.
func (s *Store) Import(r io.Reader) error {
	var raw rawSnapshot
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if raw.Version > data.SchemaVersion {
		return fmt.Errorf("unsupported snapshot version %d", raw.Version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevSeries, hadSeries := s.kv.ReadRaw(kv.KeySeries)
	if raw.Series != nil {
		series, embedded := data.NormalizeSeries(raw.Series)
		chapters := embedded
		if raw.Chapters != nil {
			chapters = mergeChapters(data.NormalizeChapters(raw.Chapters), embedded)
		}
		if err := s.saveSeries(series); err != nil {
			return fmt.Errorf("failed to import series: %w", err)
		}
		// Stored chapters stay when the snapshot carries none.
		if raw.Chapters != nil || len(embedded) > 0 {
			if err := s.saveChapters(chapters); err != nil {
				s.restore(kv.KeySeries, prevSeries, hadSeries)
				return fmt.Errorf("failed to import chapters: %w", err)
			}
		}
	} else if raw.Chapters != nil {
		if err := s.saveChapters(data.NormalizeChapters(raw.Chapters)); err != nil {
			return fmt.Errorf("failed to import chapters: %w", err)
		}
	}
	if raw.Members != nil {
		if err := s.kv.Write(kv.KeyMembers, raw.Members); err != nil {
			return fmt.Errorf("failed to import members: %w", err)
		}
	}
	return nil
}

// SeriesSnapshot builds a self-contained snapshot of one series: stored
// images are embedded as data URLs so the snapshot can be read elsewhere.
func (s *Store) SeriesSnapshot(ctx context.Context, id string) (data.Snapshot, error) {
	series, ok := s.GetSeries(id)
	if !ok {
		return data.Snapshot{}, fmt.Errorf("failed to snapshot %s: %w", id, ErrSeriesNotFound)
	}

	cover, err := s.inline(ctx, series.Cover)
	if err != nil {
		return data.Snapshot{}, err
	}
	series.Cover = cover

	chapters := series.Chapters
	series.Chapters = nil
	for i := range chapters {
		pages := make([]data.ImageRef, 0, len(chapters[i].Pages))
		for _, ref := range chapters[i].Pages {
			page, err := s.inline(ctx, ref)
			if err != nil {
				return data.Snapshot{}, err
			}
			if page != "" {
				pages = append(pages, page)
			}
		}
		chapters[i].Pages = pages
	}

	return data.Snapshot{
		Version:  data.SchemaVersion,
		Series:   []data.Series{series},
		Chapters: chapters,
	}, nil
}

func (s *Store) inline(ctx context.Context, ref data.ImageRef) (data.ImageRef, error) {
	if ref == "" || ref.IsInline() {
		return ref, nil
	}
	if _, ok := ref.BlobKey(); !ok {
		return ref, nil
	}
	b, contentType, err := s.OpenImage(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to embed %s: %w", ref, err)
	}
	if b == nil {
		return "", nil
	}
	return data.ImageRef(dataurl.New(b, contentType).String()), nil
}

// Merge upserts the series and chapters of snap by id, leaving everything
// else in place.
func (s *Store) Merge(snap data.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	series, chapters := s.load()
	prevSeries, hadSeries := s.kv.ReadRaw(kv.KeySeries)

	for _, item := range snap.Series {
		item.Chapters = nil
		if item.Slug == "" {
			item.Slug = Slugify(item.Title)
		}
		if i := indexOfSeries(series, item.ID); i >= 0 {
			series[i] = item
		} else {
			series = append(series, item)
		}
	}
	touched := map[string]bool{}
	for _, c := range snap.Chapters {
		if i := indexOfChapter(chapters, c.ID); i >= 0 {
			chapters[i] = c
		} else {
			chapters = append(chapters, c)
		}
		touched[c.SeriesID] = true
	}
	for id := range touched {
		resortSeries(chapters, id)
	}

	if err := s.saveSeries(series); err != nil {
		return fmt.Errorf("failed to merge series: %w", err)
	}
	if err := s.saveChapters(chapters); err != nil {
		s.restore(kv.KeySeries, prevSeries, hadSeries)
		return fmt.Errorf("failed to merge chapters: %w", err)
	}
	return nil
}
