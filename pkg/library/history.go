package library

import (
	"fmt"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/kv"
)

const maxHistory = 50

// RecordView bumps the view counter of a series and puts it at the top of
// the reading history. chapterID may be empty.
func (s *Store) RecordView(seriesID, chapterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	series, _ := s.load()
	i := indexOfSeries(series, seriesID)
	if i < 0 {
		return fmt.Errorf("failed to record view of %s: %w", seriesID, ErrSeriesNotFound)
	}
	series[i].Views++
	if err := s.saveSeries(series); err != nil {
		return fmt.Errorf("failed to save views: %w", err)
	}

	history := kv.Read(s.kv, kv.KeyHistory, []data.HistoryEntry{})
	entry := data.HistoryEntry{SeriesID: seriesID, ChapterID: chapterID, At: s.now().UnixMilli()}
	history = append([]data.HistoryEntry{entry}, history...)
	if len(history) > maxHistory {
		history = history[:maxHistory]
	}
	if err := s.kv.Write(kv.KeyHistory, history); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// History returns the reading history, most recent first.
func (s *Store) History() []data.HistoryEntry {
	return kv.Read(s.kv, kv.KeyHistory, []data.HistoryEntry{})
}

// ToggleFavorite adds or removes a series from the favorites and reports
// whether it is now a favorite.
func (s *Store) ToggleFavorite(seriesID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites := kv.Read(s.kv, kv.KeyFavorites, []string{})
	kept := make([]string, 0, len(favorites))
	for _, id := range favorites {
		if id != seriesID {
			kept = append(kept, id)
		}
	}
	added := len(kept) == len(favorites)
	if added {
		series, _ := s.load()
		if indexOfSeries(series, seriesID) < 0 {
			return false, fmt.Errorf("failed to favorite %s: %w", seriesID, ErrSeriesNotFound)
		}
		kept = append(kept, seriesID)
	}
	if err := s.kv.Write(kv.KeyFavorites, kept); err != nil {
		return false, fmt.Errorf("failed to save favorites: %w", err)
	}
	return added, nil
}

// Favorites returns the favorite series that still exist, in the order they
// were added.
func (s *Store) Favorites() []data.Series {
	ids := kv.Read(s.kv, kv.KeyFavorites, []string{})
	byID := make(map[string]data.Series)
	for _, item := range s.ListSeries() {
		byID[item.ID] = item
	}
	out := []data.Series{}
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out
}
