package sources

import (
	"context"

	"github.com/YungFritz/kyys-letters/pkg/library"
)

// Manga is a series as listed by a catalog source.
type Manga struct {
	ID       string
	Series   library.NewSeries
	CoverURL string
}

// Chapter is a chapter as listed by a catalog source.
type Chapter struct {
	ID      string
	Chapter library.NewChapter
	Pages   int
}

type Source interface {
	Search(ctx context.Context, query string) ([]Manga, error)
	GetManga(ctx context.Context, id string) (Manga, error)
	GetChapters(ctx context.Context, mangaID string, langs []string) ([]Chapter, error)
	GetPages(ctx context.Context, chapterID string) ([]string, error)
}
