package library

import (
	"sort"
	"strconv"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/sahilm/fuzzy"
)

// Stats summarises the catalog.
type Stats struct {
	Series   int `json:"series"`
	Chapters int `json:"chapters"`
}

// Popular returns series by view count, most viewed first. A limit <= 0
// returns all of them.
func (s *Store) Popular(limit int) []data.Series {
	series := s.ListSeries()
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Views > series[j].Views
	})
	return truncate(series, limit)
}

// Latest returns (series, chapter) pairs by release date, newest first.
func (s *Store) Latest(limit int) []data.LatestEntry {
	var entries []data.LatestEntry
	for _, item := range s.ListSeries() {
		for _, c := range item.Chapters {
			parent := item
			parent.Chapters = nil
			entries = append(entries, data.LatestEntry{Series: parent, Chapter: c})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Chapter.ReleaseDate > entries[j].Chapter.ReleaseDate
	})
	if entries == nil {
		entries = []data.LatestEntry{}
	}
	return truncate(entries, limit)
}

// Search matches q case-insensitively as a substring of titles and tags. An
// empty query matches everything.
func (s *Store) Search(q string) []data.Series {
	q = strings.ToLower(strings.TrimSpace(q))
	series := s.ListSeries()
	if q == "" {
		return series
	}
	out := []data.Series{}
	for _, item := range series {
		if strings.Contains(strings.ToLower(item.Title), q) || matchesTag(item.Tags, q) {
			out = append(out, item)
		}
	}
	return out
}

func matchesTag(tags []string, q string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// searchSource exposes series to the fuzzy matcher as one line each.
type searchSource []data.Series

func (src searchSource) String(i int) string {
	item := src[i]
	parts := []string{item.Title}
	parts = append(parts, item.Tags...)
	seen := map[string]bool{}
	for _, c := range item.Chapters {
		if c.Lang != "" && !seen[c.Lang] {
			seen[c.Lang] = true
			parts = append(parts, c.Lang)
		}
	}
	return strings.Join(parts, " ")
}

func (src searchSource) Len() int {
	return len(src)
}

// FuzzySearch ranks series by fuzzy match of q over titles, tags and chapter
// languages, best match first.
func (s *Store) FuzzySearch(q string) []data.Series {
	series := s.ListSeries()
	if strings.TrimSpace(q) == "" {
		return series
	}
	matches := fuzzy.FindFrom(q, searchSource(series))
	out := make([]data.Series, 0, len(matches))
	for _, m := range matches {
		out = append(out, series[m.Index])
	}
	return out
}

// FilterByTag returns the series carrying tag, ignoring case.
func (s *Store) FilterByTag(tag string) []data.Series {
	out := []data.Series{}
	for _, item := range s.ListSeries() {
		for _, t := range item.Tags {
			if strings.EqualFold(t, tag) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

func (s *Store) Hot() []data.Series {
	out := []data.Series{}
	for _, item := range s.ListSeries() {
		if item.Hot {
			out = append(out, item)
		}
	}
	return out
}

// Tags returns every distinct tag, sorted.
func (s *Store) Tags() []string {
	seen := map[string]bool{}
	tags := []string{}
	for _, item := range s.ListSeries() {
		for _, t := range item.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	series, chapters := s.load()
	return Stats{Series: len(series), Chapters: len(chapters)}
}

// FormatViews renders a view counter the way the home page shows it.
func FormatViews(n int) string {
	switch {
	case n <= 0:
		return "0 vues"
	case n >= 1000:
		return strconv.FormatFloat(float64(n)/1000, 'f', 1, 64) + "k vues"
	default:
		return strconv.Itoa(n) + " vues"
	}
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
