package sources

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/library"
	"github.com/YungFritz/kyys-letters/pkg/utils"
)

const (
	DefaultMangaDexURL = "https://api.mangadex.org"
	DefaultUploadsURL  = "https://uploads.mangadex.org"
)

type localized map[string]string

// pick returns the English text, then French, then any other language in a
// stable order.
func (l localized) pick() string {
	for _, lang := range []string{"en", "fr"} {
		if v := l[lang]; v != "" {
			return v
		}
	}
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if l[k] != "" {
			return l[k]
		}
	}
	return ""
}

type relationship struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		FileName string `json:"fileName"`
	} `json:"attributes"`
}

type mdManga struct {
	ID         string `json:"id"`
	Attributes struct {
		Title       localized   `json:"title"`
		AltTitles   []localized `json:"altTitles"`
		Description localized   `json:"description"`
		Tags        []struct {
			Attributes struct {
				Name localized `json:"name"`
			} `json:"attributes"`
		} `json:"tags"`
	} `json:"attributes"`
	Relationships []relationship `json:"relationships"`
}

func (m *mdManga) toManga(uploadsURL string) Manga {
	title := m.Attributes.Title.pick()
	for _, alt := range m.Attributes.AltTitles {
		if title != "" {
			break
		}
		title = alt.pick()
	}
	tags := make([]string, 0, len(m.Attributes.Tags))
	for _, tag := range m.Attributes.Tags {
		if name := tag.Attributes.Name.pick(); name != "" {
			tags = append(tags, name)
		}
	}
	manga := Manga{
		ID: m.ID,
		Series: library.NewSeries{
			Title:       title,
			Tags:        tags,
			Description: m.Attributes.Description.pick(),
		},
	}
	for _, rel := range m.Relationships {
		if rel.Type == "cover_art" && rel.Attributes.FileName != "" {
			manga.CoverURL = fmt.Sprintf("%s/covers/%s/%s", uploadsURL, m.ID, rel.Attributes.FileName)
		}
	}
	return manga
}

type mdChapter struct {
	ID         string `json:"id"`
	Attributes struct {
		Title     string `json:"title"`
		Language  string `json:"translatedLanguage"`
		Volume    string `json:"volume"`
		Number    string `json:"chapter"`
		PublishAt string `json:"publishAt"`
		Pages     int    `json:"pages"`
	} `json:"attributes"`
}

func (c *mdChapter) toChapter() Chapter {
	// Oneshots have no chapter number.
	number, _ := strconv.ParseFloat(c.Attributes.Number, 64)
	name := c.Attributes.Title
	if name == "" && c.Attributes.Number != "" {
		name = "Chapitre " + c.Attributes.Number
	}
	date := c.Attributes.PublishAt
	if len(date) >= 10 {
		date = date[:10]
	}
	return Chapter{
		ID: c.ID,
		Chapter: library.NewChapter{
			Name:        name,
			Number:      number,
			Lang:        strings.ToUpper(c.Attributes.Language),
			ReleaseDate: date,
		},
		Pages: c.Attributes.Pages,
	}
}

type MangaDex struct {
	api *utils.API

	// UploadsURL is where cover files are served from.
	UploadsURL string
}

func NewMangaDex(baseURL string, opts ...utils.APIOption) *MangaDex {
	if baseURL == "" {
		baseURL = DefaultMangaDexURL
	}
	return &MangaDex{api: utils.NewAPI(baseURL, opts...), UploadsURL: DefaultUploadsURL}
}

func (m *MangaDex) Search(ctx context.Context, query string) ([]Manga, error) {
	params := url.Values{
		"title":      {query},
		"limit":      {"20"},
		"includes[]": {"cover_art"},
	}
	var mangas struct {
		Data []mdManga `json:"data"`
	}
	if err := m.api.Get(ctx, "/manga", params, &mangas); err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", query, err)
	}
	out := make([]Manga, len(mangas.Data))
	for i, manga := range mangas.Data {
		out[i] = manga.toManga(m.UploadsURL)
	}
	return out, nil
}

func (m *MangaDex) GetManga(ctx context.Context, id string) (Manga, error) {
	var manga struct {
		Data mdManga `json:"data"`
	}
	params := url.Values{"includes[]": {"cover_art"}}
	if err := m.api.Get(ctx, "/manga/"+url.PathEscape(id), params, &manga); err != nil {
		return Manga{}, fmt.Errorf("failed to get manga %s: %w", id, err)
	}
	return manga.Data.toManga(m.UploadsURL), nil
}

// GetChapters lists the chapters of a manga in ascending order, restricted to
// langs when given. Chapters without pages (external links) are skipped.
func (m *MangaDex) GetChapters(ctx context.Context, mangaID string, langs []string) ([]Chapter, error) {
	const pageSize = 500

	var out []Chapter
	for offset := 0; ; offset += pageSize {
		params := url.Values{
			"order[chapter]": {"asc"},
			"limit":          {strconv.Itoa(pageSize)},
			"offset":         {strconv.Itoa(offset)},
		}
		for _, lang := range langs {
			params.Add("translatedLanguage[]", strings.ToLower(lang))
		}
		var feed struct {
			Data  []mdChapter `json:"data"`
			Total int         `json:"total"`
		}
		if err := m.api.Get(ctx, "/manga/"+url.PathEscape(mangaID)+"/feed", params, &feed); err != nil {
			return nil, fmt.Errorf("failed to get chapters of %s: %w", mangaID, err)
		}
		for _, chapter := range feed.Data {
			if chapter.Attributes.Pages == 0 {
				continue
			}
			out = append(out, chapter.toChapter())
		}
		if len(feed.Data) < pageSize || offset+pageSize >= feed.Total {
			break
		}
	}
	return out, nil
}

// GetPages resolves the page image URLs of a chapter through the at-home
// network.
func (m *MangaDex) GetPages(ctx context.Context, chapterID string) ([]string, error) {
	var server struct {
		BaseURL string `json:"baseUrl"`
		Chapter struct {
			Hash string   `json:"hash"`
			Data []string `json:"data"`
		} `json:"chapter"`
	}
	if err := m.api.Get(ctx, "/at-home/server/"+url.PathEscape(chapterID), nil, &server); err != nil {
		return nil, fmt.Errorf("failed to get pages of %s: %w", chapterID, err)
	}
	pages := make([]string, len(server.Chapter.Data))
	for i, file := range server.Chapter.Data {
		pages[i] = fmt.Sprintf("%s/data/%s/%s", server.BaseURL, server.Chapter.Hash, file)
	}
	return pages, nil
}
